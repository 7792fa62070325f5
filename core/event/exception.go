package event

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/openadapt/telemetry/core/privacy"
)

const maxFrames = 64

// Stacktrace captures the calling goroutine's stack, skipping skip frames
// above the caller. Frames are ordered oldest call first.
func Stacktrace(skip int) privacy.Mapping {
	pcs := make([]uintptr, maxFrames)
	n := runtime.Callers(skip+2, pcs)
	frames := runtime.CallersFrames(pcs[:n])

	var out privacy.Sequence
	for {
		f, more := frames.Next()
		if f.Function != "" || f.File != "" {
			out = append(out, frameValue(f))
		}
		if !more {
			break
		}
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return privacy.Mapping{"frames": out}
}

func frameValue(f runtime.Frame) privacy.Mapping {
	module, function := splitFunction(f.Function)
	return privacy.Mapping{
		"function": privacy.String(function),
		"module":   privacy.String(module),
		"filename": privacy.String(f.File),
		"abs_path": privacy.String(f.File),
		"lineno":   privacy.Number(f.Line),
		"in_app":   privacy.Bool(!isRuntime(module)),
	}
}

// splitFunction separates "pkg/path.Type.Method" into package path and
// function name.
func splitFunction(full string) (string, string) {
	slash := strings.LastIndex(full, "/")
	dot := strings.Index(full[slash+1:], ".")
	if dot < 0 {
		return "", full
	}
	dot += slash + 1
	return full[:dot], full[dot+1:]
}

func isRuntime(module string) bool {
	return module == "runtime" || module == "testing" || strings.HasPrefix(module, "runtime/")
}

// Exception converts err and its wrapped causes into an exception region.
// Values are ordered root cause first; the outermost error carries the
// stack trace of the capture site.
func Exception(err error, skip int) privacy.Mapping {
	if err == nil {
		return nil
	}
	var chain []error
	for e := err; e != nil && len(chain) < 10; e = errors.Unwrap(e) {
		chain = append(chain, e)
	}
	values := make(privacy.Sequence, 0, len(chain))
	for i := len(chain) - 1; i >= 0; i-- {
		v := privacy.Mapping{
			"type":  privacy.String(fmt.Sprintf("%T", chain[i])),
			"value": privacy.String(chain[i].Error()),
		}
		if i == 0 {
			v["stacktrace"] = Stacktrace(skip + 1)
		}
		values = append(values, v)
	}
	return privacy.Mapping{"values": values}
}
