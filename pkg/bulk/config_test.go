/*
 * Copyright 2025 SREDiag Authors
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
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type ConfigTestSuite struct {
	suite.Suite
}

func (s *ConfigTestSuite) TestDefaultConfig() {
	config := DefaultConfig()
	s.Require().Nil(VerifyConfig(config))
	s.Require().Equal(DefaultRegionCapacity, config.RegionCapacity)
	s.Require().Equal(time.Second, config.WaitTimeout)
	s.Require().NotNil(config.Meter)
	s.Require().NotNil(config.Tracer)
}

func (s *ConfigTestSuite) TestVerifyConfig() {
	s.Require().True(errors.Is(VerifyConfig(nil), ErrInvalidConfig))

	config := DefaultConfig()
	config.RegionCapacity = minRegionCapacity - 1
	s.Require().True(errors.Is(VerifyConfig(config), ErrInvalidConfig))
	config.RegionCapacity = minRegionCapacity
	s.Require().Nil(VerifyConfig(config))

	config.WaitTimeout = 0
	s.Require().True(errors.Is(VerifyConfig(config), ErrInvalidConfig))
	config.WaitTimeout = time.Millisecond

	config.MaxConsecutiveErrors = 0
	s.Require().True(errors.Is(VerifyConfig(config), ErrInvalidConfig))
}

func (s *ConfigTestSuite) TestWithDefaults() {
	s.Require().Equal(DefaultRegionCapacity, withDefaults(nil).RegionCapacity)

	config := &Config{RegionCapacity: 4096, WaitTimeout: time.Millisecond, MaxConsecutiveErrors: 1}
	filled := withDefaults(config)
	s.Require().NotNil(filled.Meter)
	s.Require().NotNil(filled.Tracer)
	s.Require().Nil(config.Meter, "caller config must not be modified")
	s.Require().Equal(4096, filled.RegionCapacity)
}

func TestConfigTestSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}
