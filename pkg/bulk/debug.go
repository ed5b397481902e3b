/*
 * Copyright 2025 SREDiag Authors
 * Copyright 2023 CloudWeGo Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package bulk

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/srediag/shm-bulk/pkg/shm"
)

type logger struct {
	name      string
	mu        sync.Mutex
	out       io.Writer
	callDepth int
}

var (
	internalLogger = &logger{name: "", out: os.Stdout, callDepth: 4}
	protocolLogger = &logger{name: "protocol trace", out: os.Stdout, callDepth: 4}
	level          atomic.Int32

	magenta = string([]byte{27, 91, 57, 53, 109}) // Trace
	green   = string([]byte{27, 91, 57, 50, 109}) // Debug
	blue    = string([]byte{27, 91, 57, 52, 109}) // Info
	yellow  = string([]byte{27, 91, 57, 51, 109}) // Warn
	red     = string([]byte{27, 91, 57, 49, 109}) // Error
	reset   = string([]byte{27, 91, 48, 109})

	colors = []string{
		magenta,
		green,
		blue,
		yellow,
		red,
	}

	levelName = []string{
		"Trace",
		"Debug",
		"Info",
		"Warn",
		"Error",
	}
)

const (
	levelTrace = iota
	levelDebug
	levelInfo
	levelWarn
	levelError
	levelNoPrint
)

func init() {
	level.Store(levelWarn)
	if v := os.Getenv("BULKSHM_LOG_LEVEL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= levelTrace && n <= levelNoPrint {
			level.Store(int32(n))
		}
	}
}

// SetLogLevel used to change the internal logger's level and the default level is Warning.
// The process env `BULKSHM_LOG_LEVEL` also could set log level
func SetLogLevel(l int) {
	if l >= levelTrace && l <= levelNoPrint {
		level.Store(int32(l))
	}
}

// SetLogOutput redirects both internal loggers, os.Stdout when out is nil.
func SetLogOutput(out io.Writer) {
	if out == nil {
		out = os.Stdout
	}
	for _, l := range []*logger{internalLogger, protocolLogger} {
		l.mu.Lock()
		l.out = out
		l.mu.Unlock()
	}
}

func (l *logger) logf(lvl int, format string, a ...interface{}) {
	if int(level.Load()) > lvl {
		return
	}
	line := l.prefix(lvl) + fmt.Sprintf(format, a...) + reset + "\n"
	l.mu.Lock()
	_, _ = io.WriteString(l.out, line)
	l.mu.Unlock()
}

func (l *logger) errorf(format string, a ...interface{}) {
	l.logf(levelError, format, a...)
}

func (l *logger) warnf(format string, a ...interface{}) {
	l.logf(levelWarn, format, a...)
}

func (l *logger) infof(format string, a ...interface{}) {
	l.logf(levelInfo, format, a...)
}

func (l *logger) debugf(format string, a ...interface{}) {
	l.logf(levelDebug, format, a...)
}

func (l *logger) tracef(format string, a ...interface{}) {
	l.logf(levelTrace, format, a...)
}

func (l *logger) prefix(level int) string {
	var buffer [64]byte
	buf := bytes.NewBuffer(buffer[:0])
	_, _ = buf.WriteString(colors[level])
	_, _ = buf.WriteString(levelName[level])
	_ = buf.WriteByte(' ')
	_, _ = buf.WriteString(time.Now().Format("2006-01-02 15:04:05.999999"))
	_ = buf.WriteByte(' ')
	_, _ = buf.WriteString(l.location())
	_ = buf.WriteByte(' ')
	_, _ = buf.WriteString(l.name)
	_ = buf.WriteByte(' ')
	return buf.String()
}

func (l *logger) location() string {
	_, file, line, ok := runtime.Caller(l.callDepth)
	if !ok {
		file = "???"
		line = 0
	}
	file = filepath.Base(file)
	return file + ":" + strconv.Itoa(line)
}

// DebugRegionDetail prints the batch currently stored in the region called name,
// reading its backing file without joining the handshake.
func DebugRegionDetail(name string) {
	path, err := shm.Path(name)
	if err != nil {
		fmt.Println(err)
		return
	}
	mem, err := os.ReadFile(path)
	if err != nil {
		fmt.Println(err)
		return
	}
	payloads, err := DecodeBatch(bytes.NewReader(mem), int64(len(mem)))
	if err != nil {
		fmt.Printf("path:%s size:%d decode error:%v\n", path, len(mem), err)
		return
	}
	fmt.Printf("path:%s size:%d count:%d\n", path, len(mem), len(payloads))
	for i, p := range payloads {
		fmt.Printf("  entry:%d length:%d\n", i, len(p))
	}
}
