package adapters

import (
	"os"
	"path/filepath"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"toolpin/internal/ports"
)

const stagingDirName = ".toolpin-staging"

// StageFSAdapter implements staged-then-atomic-rename installs on a local
// filesystem. The staging directory lives under the install root so the
// final rename never crosses a filesystem boundary.
type StageFSAdapter struct {
	StagingDir string
}

func NewStageFSAdapter(root string) StageFSAdapter {
	return StageFSAdapter{StagingDir: filepath.Join(root, stagingDirName)}
}

func (a StageFSAdapter) EnsureDir(path string) error {
	if err := os.MkdirAll(path, 0755); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create directory").
			WithCause(err)
	}
	return nil
}

func (a StageFSAdapter) StageWrite(data []byte) (string, error) {
	if err := os.MkdirAll(a.StagingDir, 0755); err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create staging directory").
			WithCause(err)
	}
	file, err := os.CreateTemp(a.StagingDir, "stage-*")
	if err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create staging file").
			WithCause(err)
	}
	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(file.Name())
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to write staging file").
			WithCause(err)
	}
	if err := file.Close(); err != nil {
		os.Remove(file.Name())
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to close staging file").
			WithCause(err)
	}
	return file.Name(), nil
}

func (a StageFSAdapter) AtomicRename(tempPath string, finalPath string) error {
	if err := os.Rename(tempPath, finalPath); err != nil {
		os.Remove(tempPath)
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to move staged file into place").
			WithCause(err)
	}
	return nil
}

var _ ports.StagePort = StageFSAdapter{}
