package health

import (
	"runtime"
	"strconv"
)

func numGoroutine() int {
	return runtime.NumGoroutine()
}

type tooManyGoroutinesError struct {
	count     int
	threshold int
}

func (e *tooManyGoroutinesError) Error() string {
	return "too many goroutines: " + strconv.Itoa(e.count) +
		" > " + strconv.Itoa(e.threshold)
}
