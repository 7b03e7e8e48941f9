package cleaner

import (
	"fmt"
	"os"

	"github.com/spf13/afero"
)

// lstat stats path without following a final symlink when fs supports it
func lstat(fs afero.Fs, path string) (os.FileInfo, error) {
	if lfs, ok := fs.(afero.Lstater); ok {
		info, _, err := lfs.LstatIfPossible(path)
		return info, err
	}
	return fs.Stat(path)
}

// CheckSpecialMode rejects device files, sockets and pipes
func CheckSpecialMode(mode os.FileMode) error {
	switch {
	case mode&os.ModeDevice != 0:
		return fmt.Errorf("is a device file")
	case mode&os.ModeCharDevice != 0:
		return fmt.Errorf("is a character device")
	case mode&os.ModeSocket != 0:
		return fmt.Errorf("is a socket")
	case mode&os.ModeNamedPipe != 0:
		return fmt.Errorf("is a named pipe (FIFO)")
	}
	return nil
}

// IsSafeToDelete stats path (without following symlinks) and refuses
// special files and directories. The returned info is the fresh stat.
func IsSafeToDelete(fs afero.Fs, path string) (os.FileInfo, error) {
	info, err := lstat(fs, path)
	if err != nil {
		return nil, err
	}

	if err := CheckSpecialMode(info.Mode()); err != nil {
		return info, fmt.Errorf("refusing to delete special file: %w", err)
	}
	if info.IsDir() {
		return info, fmt.Errorf("refusing to delete directory")
	}

	return info, nil
}
