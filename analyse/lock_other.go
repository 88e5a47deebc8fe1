//go:build !unix

package analyse

type dirLock struct{}

func lockDir(dir string) (*dirLock, error) {
	return &dirLock{}, nil
}

func (l *dirLock) unlock() error {
	return nil
}
