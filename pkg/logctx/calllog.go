package logctx

import (
	"context"
	"fmt"
	"reflect"
	"runtime"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Func is the call shape wrapped by the call logger.
type Func[In, Out any] func(ctx context.Context, in In) (Out, error)

// CallConfig controls the single record the call logger emits per call.
type CallConfig[Out any] struct {
	// Level is the severity on success. Failures are always elevated to
	// error level. Defaults to info.
	Level logrus.Level

	// Message is the record's message. Defaults to "call".
	Message string

	// ArgName is the field name the input value is logged under inside the
	// arguments map. Defaults to "event".
	ArgName string

	// Exclude lists argument names left out of the record. The host context
	// is never logged; the default also mirrors that by excluding "context".
	Exclude []string

	// ResultExtractor maps a successful result to extra record fields. It is
	// not invoked on failure.
	ResultExtractor func(Out) logrus.Fields

	// Identity overrides the function identity block. When nil the wrapped
	// function is identified directly, which for a decorated chain names the
	// outermost wrapper rather than the business function.
	Identity logrus.Fields
}

func (c CallConfig[Out]) withDefaults() CallConfig[Out] {
	if c.Level == 0 {
		c.Level = logrus.InfoLevel
	}
	if c.Message == "" {
		c.Message = "call"
	}
	if c.ArgName == "" {
		c.ArgName = "event"
	}
	if c.Exclude == nil {
		c.Exclude = []string{"context"}
	}
	return c
}

// Wrap decorates fn so that every call emits exactly one structured record:
// the wrapped function's identity, its arguments minus the exclusion set,
// the monotonic duration in seconds, ambient context fields, and on failure
// an exception summary. The call's result and error propagate unchanged;
// panics are logged with a summary and re-raised.
func Wrap[In, Out any](fn Func[In, Out], cfg CallConfig[Out]) Func[In, Out] {
	cfg = cfg.withDefaults()
	ident := cfg.Identity
	if ident == nil {
		ident = Identify(fn)
	}

	return func(ctx context.Context, in In) (out Out, err error) {
		fields := logrus.Fields{
			"function":  ident,
			"arguments": arguments(cfg.ArgName, in, cfg.Exclude),
		}
		start := time.Now()
		defer func() {
			fields["duration"] = time.Since(start).Seconds()
			entry := Logger(ctx).WithFields(fields)

			if r := recover(); r != nil {
				entry.WithField("exception", logrus.Fields{
					"type":    fmt.Sprintf("%T", r),
					"message": fmt.Sprint(r),
				}).Log(logrus.ErrorLevel, cfg.Message)
				panic(r)
			}

			level := cfg.Level
			if err != nil {
				level = logrus.ErrorLevel
				entry = entry.WithField("exception", logrus.Fields{
					"type":    fmt.Sprintf("%T", err),
					"message": err.Error(),
				})
			} else if cfg.ResultExtractor != nil {
				entry = entry.WithFields(cfg.ResultExtractor(out))
			}
			entry.Log(level, cfg.Message)
		}()

		out, err = fn(ctx, in)
		return out, err
	}
}

func arguments(argName string, in any, exclude []string) logrus.Fields {
	args := logrus.Fields{argName: in}
	for _, name := range exclude {
		delete(args, name)
	}
	return args
}

// Identify resolves a function's name, package, and source location for the
// call record's identity block.
func Identify(fn any) logrus.Fields {
	pc := reflect.ValueOf(fn).Pointer()
	f := runtime.FuncForPC(pc)
	if f == nil {
		return logrus.Fields{"name": "unknown"}
	}
	file, line := f.FileLine(pc)
	pkg, name := splitFuncName(f.Name())
	return logrus.Fields{
		"name":    name,
		"package": pkg,
		"file":    file,
		"line":    line,
	}
}

// splitFuncName splits a runtime function name like
// "lambdakit/internal/orders.(*Service).Create" into its package path and
// the bare function name.
func splitFuncName(full string) (pkg, name string) {
	slash := strings.LastIndex(full, "/")
	dot := strings.Index(full[slash+1:], ".")
	if dot < 0 {
		return "", full
	}
	dot += slash + 1
	return full[:dot], full[dot+1:]
}
