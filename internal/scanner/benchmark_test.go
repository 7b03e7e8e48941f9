package scanner

import (
	"context"
	"fmt"
	"testing"

	"github.com/fenilsonani/fileflow/internal/config"
	"github.com/spf13/afero"
)

// =============================================================================
// Scanner Benchmarks
// =============================================================================

func BenchmarkMatchTemp(b *testing.B) {
	names := []string{
		"photo.jpg",
		"video.mp4.part",
		"Quarterly_Report_Backup.xlsx",
		"setup.exe.crdownload",
		"notes.txt~",
		"archive.tar.gz",
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, n := range names {
			MatchTemp(n, config.DefaultSweepSuffixes, config.DefaultSweepPatterns)
		}
	}
}

// benchTree writes dirs*perDir files; every tenth file shares content with
// another so duplicate search has work to do
func benchTree(b *testing.B, dirs, perDir int) afero.Fs {
	b.Helper()
	fs := afero.NewMemMapFs()
	for d := 0; d < dirs; d++ {
		for f := 0; f < perDir; f++ {
			path := fmt.Sprintf("/bench/d%03d/f%04d.dat", d, f)
			content := fmt.Sprintf("content-%d-%d", d, f)
			if f%10 == 0 {
				content = fmt.Sprintf("shared-%d", f)
			}
			if err := afero.WriteFile(fs, path, []byte(content), 0644); err != nil {
				b.Fatal(err)
			}
		}
	}
	return fs
}

func BenchmarkScan(b *testing.B) {
	fs := benchTree(b, 20, 50)
	cfg := config.GetDefault()
	s := New(cfg, fs)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := s.Scan(ctx, "/bench"); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkFindDuplicates(b *testing.B) {
	for _, algo := range []string{"md5", "sha256", "blake3"} {
		b.Run(algo, func(b *testing.B) {
			fs := benchTree(b, 20, 50)
			cfg := config.GetDefault()
			cfg.HashAlgorithm = algo
			s := New(cfg, fs)
			ctx := context.Background()

			result, err := s.Scan(ctx, "/bench")
			if err != nil {
				b.Fatal(err)
			}

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := s.FindDuplicates(ctx, result.Files); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
