package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		name string
		code string
		want string
	}{
		{"empty", "   ", "unknown"},
		{"php", "<?php echo 'hi'; ?>", "php"},
		{"c", "#include <stdio.h>\nint main() { printf(\"x\"); }", "c/c++"},
		{"go", "package main\n\nfunc main() {}\n", "go"},
		{"rust", "fn main() {\n    let mut x = 1;\n}", "rust"},
		{"java", "public class Foo {\n  private void run() { System.out.println(1); }\n}", "java"},
		{"ruby", "def hi\n  puts 'x'\nend\n", "ruby"},
		{"python", sampleCode, "python"},
		{"python import", "import os\nx = os.getcwd()", "python"},
		{"javascript", "const add = (a, b) => a + b;\nconsole.log(add(1, 2));", "javascript"},
		{"plain text", "hello world", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectLanguage(tt.code))
		})
	}
}

func TestLanguageForPath(t *testing.T) {
	assert.Equal(t, "python", LanguageForPath("app.py"))
	assert.Equal(t, "go", LanguageForPath("/src/main.GO"))
	assert.Equal(t, "c/c++", LanguageForPath("lib.hpp"))
	assert.Equal(t, "", LanguageForPath("README"))
	assert.Equal(t, "", LanguageForPath("stdin"))
}
