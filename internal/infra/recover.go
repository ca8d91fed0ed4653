package infra

import (
	"fmt"
	"runtime"
	"strings"

	log "github.com/sirupsen/logrus"
)

// GoRecoverable runs f and restarts it after a panic. maxPanics < 0 restarts forever,
// 0 exits the process on the next panic.
func GoRecoverable(maxPanics int, id string, f func()) {
	defer func() {
		if err := recover(); err != nil {
			entry := log.WithField("job", id)
			entry.Errorf("job panics with message: %s, %s", err, identifyPanic())
			if maxPanics == 0 {
				entry.Fatal("panics limit exceeded, exiting")
			}
			if maxPanics > 0 {
				maxPanics--
				entry.Debugf("recovering job with max panics left: %d", maxPanics)
			} else {
				entry.Debug("recovering job")
			}
			go GoRecoverable(maxPanics, id, f)
		}
	}()
	f()
}

// LogPanic recovers and logs a panic. It must be deferred directly.
func LogPanic(id string) {
	if err := recover(); err != nil {
		log.WithField("job", id).Errorf("recovered panic: %s, %s", err, identifyPanic())
	}
}

func identifyPanic() string {
	var name, file string
	var line int
	var pc [16]uintptr

	n := runtime.Callers(3, pc[:])
	for _, pc := range pc[:n] {
		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}
		file, line = fn.FileLine(pc)
		name = fn.Name()
		if !strings.HasPrefix(name, "runtime.") {
			break
		}
	}

	switch {
	case name != "":
		return fmt.Sprintf("%v:%v", name, line)
	case file != "":
		return fmt.Sprintf("%v:%v", file, line)
	}

	return fmt.Sprintf("pc:%x", pc)
}
