// Package bundle carries the embedded JavaScript payload: a compact DOM
// implementation, the Readability extraction algorithm, and the glue script
// that exposes the extract entry point to the host. The payload is compiled
// once per process and the compiled program is shared by every engine
// instance.
package bundle

import (
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/dop251/goja"
)

// Version identifies the embedded payload. Bumped whenever any file under
// js/ changes behavior.
const Version = "1.0.0"

// EntryPoint is the name of the global function defined by the glue script.
// The host calls it as EntryPoint(html, baseUrl, options).
const EntryPoint = "extract"

//go:embed js/dom.js
var domSource string

//go:embed js/readability.js
var readabilitySource string

//go:embed js/glue.js
var glueSource string

var (
	compileOnce sync.Once
	program     *goja.Program
	compileErr  error
)

// Source returns the full payload in evaluation order: DOM first, then the
// extraction algorithm, then the glue that wires them together.
func Source() string {
	return domSource + "\n" + readabilitySource + "\n" + glueSource
}

// Program returns the payload compiled to a goja program. Compilation runs
// once; the returned program is immutable and safe to evaluate on any number
// of runtimes concurrently.
func Program() (*goja.Program, error) {
	compileOnce.Do(func() {
		program, compileErr = goja.Compile("bundle.js", Source(), false)
		if compileErr != nil {
			compileErr = fmt.Errorf("compile embedded bundle: %w", compileErr)
		}
	})
	return program, compileErr
}

// Checksum returns the hex-encoded SHA-256 of the payload source, useful for
// telling deployments apart in logs and version output.
func Checksum() string {
	sum := sha256.Sum256([]byte(Source()))
	return hex.EncodeToString(sum[:])
}
