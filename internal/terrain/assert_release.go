//go:build !debug

package terrain

const debugAssertions = false

func assertChunkCapacity(chunkIndex, maxChunks int) bool {
	return chunkIndex >= 0 && chunkIndex < maxChunks
}
