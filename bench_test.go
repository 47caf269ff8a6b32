package ompfile

import (
	"fmt"
	"testing"

	"github.com/hupe1980/ompfile/backend"
	"github.com/hupe1980/ompfile/testutil"
)

func BenchmarkWriteAt(b *testing.B) {
	for _, size := range []int{512, 4096, 65536} {
		b.Run(fmt.Sprintf("%dB", size), func(b *testing.B) {
			c, err := New(WithBackend(backend.POSIX), WithLogger(NoopLogger()))
			if err != nil {
				b.Fatal(err)
			}
			defer c.Close()

			h, err := c.Open(testutil.TempFile(b, "bench.bin", nil))
			if err != nil {
				b.Fatal(err)
			}
			block := testutil.NewRNG(42).Bytes(size)

			b.SetBytes(int64(size))
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := c.WriteAt(h, block, int64(i%1024)*int64(size)); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkAdmissionContended(b *testing.B) {
	c, err := New(withFake(&fakeBackend{}), WithIOTokens(2), WithLogger(NoopLogger()))
	if err != nil {
		b.Fatal(err)
	}
	defer c.Close()

	p := make([]byte, 64)
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_, _ = c.ReadAt(0, p, 0)
		}
	})
}
