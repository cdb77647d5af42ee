package ports

// StagePort is the filesystem capability the engine installs through.
// Writes go to a staging location first; AtomicRename makes the content
// visible at its final path in one step, so a partially fetched package
// is never observable.
type StagePort interface {
	EnsureDir(path string) error
	StageWrite(data []byte) (tempPath string, err error)
	AtomicRename(tempPath string, finalPath string) error
}
