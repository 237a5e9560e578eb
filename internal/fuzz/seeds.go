package fuzztests

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const (
	maxFuzzInput = 1 << 16 // 64 KiB
	maxSeedBytes = 64 << 10
)

var builtinSeeds = []string{
	"",
	"rules: []\n",
	`globals:
  - {name: x, type: number, init: 1}
rules:
  - name: main
    body:
      - assign: {target: x, value: {bin: [x, "+", 1]}}
`,
	`globals:
  - {name: r, type: number, init: 0}
funcs:
  - name: f
    params: ["n: number"]
    result: number
    body:
      - if:
          cond: {bin: [n, "<=", 0]}
          then:
            - return: 1
      - return: {bin: [n, "+", {call: {fn: f, args: [{bin: [n, "-", 1]}]}}]}
rules:
  - name: main
    body:
      - assign: {target: r, value: {call: {fn: f, args: [4]}}}
`,
	`rules:
  - name: loop
    body:
      - var: {name: i, type: number, init: 0}
      - while:
          cond: {bin: [i, "<", 3]}
          body:
            - expr: {call: {fn: Log, args: [i]}}
            - assign: {target: i, op: "+=", value: 1}
`,
}

func addCorpusSeeds(f *testing.F) {
	for _, s := range builtinSeeds {
		f.Add([]byte(s))
	}
	addTestdataSeeds(f)
}

// addTestdataSeeds adds every fixture under the repository testdata tree.
func addTestdataSeeds(f *testing.F) {
	root := filepath.Join("..", "..", "testdata")
	if _, err := os.Stat(root); err != nil {
		return
	}
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil || d.IsDir() || !strings.HasSuffix(path, ".wsc.yaml") {
			return nil
		}
		// #nosec G304 -- path comes from repository testdata walk
		src, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		f.Add(clampSeed(src))
		return nil
	})
}

func clampSeed(b []byte) []byte {
	if len(b) > maxSeedBytes {
		b = b[:maxSeedBytes]
	}
	return append([]byte(nil), b...)
}

func clampInput(b []byte) []byte {
	if len(b) > maxFuzzInput {
		b = b[:maxFuzzInput]
	}
	return append([]byte(nil), b...)
}
