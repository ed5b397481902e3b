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
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"
)

type DebugTestSuite struct {
	suite.Suite
	buf bytes.Buffer
}

func (s *DebugTestSuite) SetupTest() {
	s.buf.Reset()
	SetLogOutput(&s.buf)
}

func (s *DebugTestSuite) TearDownTest() {
	SetLogOutput(nil)
	SetLogLevel(levelWarn)
}

func (s *DebugTestSuite) TestLogColor() {
	SetLogLevel(levelTrace)

	internalLogger.tracef("this is tracef %s", "hello world")
	internalLogger.debugf("this is debugf %s", "hello world")
	internalLogger.infof("this is infof %s", "hello world")
	internalLogger.warnf("this is warnf %s", "hello world")
	internalLogger.errorf("this is errorf %s", "hello world")
	protocolLogger.tracef("batch count:%d", 3)

	out := s.buf.String()
	s.Require().GreaterOrEqual(strings.Count(out, "\n"), 6)
	for _, name := range levelName {
		s.Require().Contains(out, name)
	}
	s.Require().Contains(out, "protocol trace batch count:3")
	s.Require().Contains(out, "debug_test.go")
}

func (s *DebugTestSuite) TestLevelFilter() {
	SetLogLevel(levelError)
	internalLogger.warnf("dropped")
	s.Require().Equal(0, s.buf.Len())
	internalLogger.errorf("kept")
	s.Require().Contains(s.buf.String(), "kept")

	SetLogLevel(levelNoPrint)
	internalLogger.errorf("dropped too")
	s.Require().NotContains(s.buf.String(), "dropped too")

	SetLogLevel(100)
	s.Require().Equal(int32(levelNoPrint), level.Load())
}

func TestDebugTestSuite(t *testing.T) {
	suite.Run(t, new(DebugTestSuite))
}
