package scanner

import (
	"context"

	"github.com/docker/docker/api/types"
)

// LocalImage is one locally available image tag.
type LocalImage struct {
	ID   string
	Tag  string
	Size int64
}

// ListLocalImages enumerates the docker images available on this host, one
// entry per tag.
func (sa *ScanApi) ListLocalImages(ctx context.Context) ([]LocalImage, error) {
	images, err := sa.DCli.ImageList(ctx, types.ImageListOptions{})
	if err != nil {
		return nil, err
	}

	var list []LocalImage
	for _, image := range images {
		id := image.ID
		if idx := len("sha256:"); len(id) > idx+12 {
			id = id[idx : idx+12]
		}

		tags := image.RepoTags
		if len(tags) == 0 {
			tags = []string{"<none>"}
		}

		for _, tag := range tags {
			list = append(list, LocalImage{
				ID:   id,
				Tag:  tag,
				Size: image.Size,
			})
		}
	}

	return list, nil
}
