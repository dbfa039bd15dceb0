package assert

import (
	"fmt"
	"runtime"
	"strings"
)

// NotCircular 检测单例构造函数是否被递归调用（A 依赖 B，B 又依赖 A）
func NotCircular() {
	pc, _, _, ok := runtime.Caller(1)
	if !ok {
		return
	}
	name := runtime.FuncForPC(pc).Name()

	// 同一 goroutine 内 sync.Once 重入会死锁，这里只能检测调用栈中的重复出现
	stack := make([]uintptr, 64)
	n := runtime.Callers(3, stack)
	frames := runtime.CallersFrames(stack[:n])
	for {
		frame, more := frames.Next()
		if frame.Function == name {
			panic(fmt.Sprintf("circular singleton construction detected: %s", shortName(name)))
		}
		if !more {
			break
		}
	}
}

// NotNil 单例构造完成后必须非空
func NotNil(v interface{}) {
	if v == nil {
		panic("assert: unexpected nil value")
	}
}

// True 条件不成立时 panic
func True(cond bool, msg string) {
	if !cond {
		panic("assert: " + msg)
	}
}

func shortName(fn string) string {
	if i := strings.LastIndex(fn, "/"); i >= 0 {
		return fn[i+1:]
	}
	return fn
}
