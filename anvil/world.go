// Package anvil reads Java edition worlds stored in Anvil region files.
package anvil

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bitmark-inc/logger"

	"github.com/astei/anvil2bedrock/chunk"
)

const (
	regionExtension = ".mca"

	// region files already in Bedrock voxel order
	prerepackedExtension = ".mcapm"
)

// Bedrock dimension ids
const (
	Overworld int32 = 0
	Nether    int32 = 1
	End       int32 = 2
)

type Dimension struct {
	ID        int32
	Directory string
}

// RegionFile is one region of a dimension. Repack is false for files whose sections
// are stored in Bedrock order already.
type RegionFile struct {
	Path   string
	Repack bool
}

var dimensionFolders = []struct {
	id     int32
	folder string
}{
	{Overworld, "region"},
	{Nether, filepath.Join("DIM-1", "region")},
	{End, filepath.Join("DIM1", "region")},
}

// Dimensions lists the region folders present in the world at root.
func Dimensions(root string) []Dimension {
	var dimensions []Dimension
	for _, d := range dimensionFolders {
		directory := filepath.Join(root, d.folder)
		if info, err := os.Stat(directory); err == nil && info.IsDir() {
			dimensions = append(dimensions, Dimension{ID: d.id, Directory: directory})
		}
	}
	return dimensions
}

// RegionFiles lists the region files of a dimension in name order.
func (d Dimension) RegionFiles() ([]RegionFile, error) {
	entries, err := os.ReadDir(d.Directory)
	if err != nil {
		return nil, err
	}

	var files []RegionFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		switch {
		case strings.HasSuffix(name, regionExtension):
			files = append(files, RegionFile{Path: filepath.Join(d.Directory, name), Repack: true})
		case strings.HasSuffix(name, prerepackedExtension):
			files = append(files, RegionFile{Path: filepath.Join(d.Directory, name), Repack: false})
		}
	}
	sort.Slice(files, func(i, j int) bool {
		return files[i].Path < files[j].Path
	})
	return files, nil
}

// ReadRegion decodes every chunk of the region at path and hands it to fn. Chunks
// that cannot be read are logged and skipped. An error from fn stops the read and
// is returned.
func ReadRegion(path string, log *logger.L, fn func(c *chunk.Chunk) error) (count int, err error) {
	region, err := OpenRegion(path)
	if err != nil {
		return 0, err
	}
	defer region.Close()

	present := region.Chunks()
	for i, ok := present.NextSet(0); ok; i, ok = present.NextSet(i + 1) {
		x, z := int(i)%regionWidth, int(i)/regionWidth

		stream, err := region.ReadChunk(x, z)
		if err != nil {
			log.Warnf("%s: chunk %d,%d: %s", path, x, z, err)
			continue
		}
		c, err := Decode(stream)
		if err != nil {
			log.Warnf("%s: chunk %d,%d: %s", path, x, z, err)
			continue
		}

		if err = fn(c); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}
