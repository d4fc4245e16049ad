package fetcher

import (
	"archive/tar"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/dbferry/dbferry/pkg/dataset"
)

// untarStrip extracts a tar stream into path, dropping the archive's
// top-level directory so the dataset files land directly under path.
// Entries escaping path are skipped.
func untarStrip(r io.Reader, path string) error {
	tarReader := tar.NewReader(r)

	for hdr, err := tarReader.Next(); err != io.EOF; hdr, err = tarReader.Next() {
		if err != nil {
			return err
		}

		name := stripRoot(hdr.Name)
		if name == "" {
			continue
		}

		extractFile := filepath.Join(path, name)
		if !strings.HasPrefix(extractFile, filepath.Clean(path)+string(os.PathSeparator)) {
			continue
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if !dataset.Exists(extractFile) {
				if err := os.MkdirAll(extractFile, 0755); err != nil {
					return err
				}
			}
		case tar.TypeReg:
			if err := dataset.MkFolder(filepath.Dir(extractFile)); err != nil {
				return err
			}

			file, err := os.OpenFile(extractFile, os.O_CREATE|os.O_RDWR|os.O_TRUNC, os.FileMode(hdr.Mode))
			if err != nil {
				continue
			}
			_, err = io.Copy(file, tarReader)
			file.Close()
			if err != nil {
				log.Printf("file %s can not extract: %v", hdr.Name, err)
			}
		default:
			// ignore
		}
	}

	return nil
}

func stripRoot(name string) string {
	name = strings.TrimPrefix(filepath.ToSlash(name), "./")
	parts := strings.SplitN(name, "/", 2)
	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}
