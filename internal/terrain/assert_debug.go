//go:build debug

package terrain

import "fmt"

const debugAssertions = true

func assertChunkCapacity(chunkIndex, maxChunks int) bool {
	if chunkIndex < 0 || chunkIndex >= maxChunks {
		panic(fmt.Sprintf("terrain: chunk index %d outside chunk buffer of %d", chunkIndex, maxChunks))
	}
	return true
}
