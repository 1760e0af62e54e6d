package execguard

import "testing"

func BenchmarkClassify_SafeCommand(b *testing.B) {
	c := DefaultClassifier()
	p := DefaultPolicy()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Classify("echo hello world", p)
	}
}

func BenchmarkClassify_ForbiddenPattern(b *testing.B) {
	c := DefaultClassifier()
	p := DefaultPolicy()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Classify("rm -rf /", p)
	}
}

func BenchmarkClassify_HighRiskCommand(b *testing.B) {
	c := DefaultClassifier()
	p := DefaultPolicy()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Classify("rm file.txt", p)
	}
}

func BenchmarkClassify_SystemPathEscalation(b *testing.B) {
	c := DefaultClassifier()
	p := DefaultPolicy()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Classify("cp notes.txt /etc/notes.txt", p)
	}
}

func BenchmarkClassify_LongCommand(b *testing.B) {
	c := DefaultClassifier()
	p := DefaultPolicy()
	command := "tar czf backup.tar.gz /tmp/a /tmp/b /tmp/c /tmp/d /tmp/e /tmp/f /tmp/g /tmp/h"
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Classify(command, p)
	}
}
