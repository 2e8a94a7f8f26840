package utils

import (
	"os"
	"testing"
)

func BenchmarkEnvOrDefaultCold(b *testing.B) {
	const key = "LEDGERD_BENCH_COLD"
	os.Setenv(key, "value")
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		clearEnvCache(key)
		EnvOrDefault(key, "fallback")
	}
}

func BenchmarkEnvOrDefaultCached(b *testing.B) {
	const key = "LEDGERD_BENCH_CACHED"
	os.Setenv(key, "value")
	clearEnvCache(key)
	EnvOrDefault(key, "fallback") // warm the cache once
	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		EnvOrDefault(key, "fallback")
	}
}

func BenchmarkEnvOrDefaultInt(b *testing.B) {
	const key = "LEDGERD_BENCH_INT"
	os.Setenv(key, "123")
	clearEnvCache(key)
	EnvOrDefaultInt(key, 0)
	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		EnvOrDefaultInt(key, 0)
	}
}
