//go:build unix

package shm

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type SignalTestSuite struct {
	suite.Suite
	name string
}

func (s *SignalTestSuite) SetupTest() {
	s.name = fmt.Sprintf("signal-%d", time.Now().UnixNano())
}

func (s *SignalTestSuite) TearDownTest() {
	_ = UnlinkSignalPair(s.name)
	_ = Unlink(s.name)
}

func (s *SignalTestSuite) TestAutoReset() {
	sig, err := OpenSignal(context.Background(), s.name)
	s.Require().NoError(err)
	defer func() { _ = sig.Close() }()

	s.Require().NoError(sig.Set())
	ok, err := sig.Wait(100 * time.Millisecond)
	s.Require().NoError(err)
	s.Require().True(ok)

	// consumed by the first wait
	start := time.Now()
	ok, err = sig.Wait(50 * time.Millisecond)
	s.Require().NoError(err)
	s.Require().False(ok)
	s.Require().GreaterOrEqual(time.Since(start), 40*time.Millisecond)
}

func (s *SignalTestSuite) TestSetIsBinary() {
	sig, err := OpenSignal(context.Background(), s.name)
	s.Require().NoError(err)
	defer func() { _ = sig.Close() }()

	s.Require().NoError(sig.Set())
	s.Require().NoError(sig.Set())
	ok, _ := sig.Wait(10 * time.Millisecond)
	s.Require().True(ok)
	ok, _ = sig.Wait(10 * time.Millisecond)
	s.Require().False(ok)
}

func (s *SignalTestSuite) TestPairAliasesAcrossHandles() {
	ctx := context.Background()
	producer, err := OpenSignalPair(ctx, s.name)
	s.Require().NoError(err)
	defer func() { _ = producer.Close() }()
	consumer, err := OpenSignalPair(ctx, s.name)
	s.Require().NoError(err)
	defer func() { _ = consumer.Close() }()

	s.Require().Equal(s.name+WriteEventSuffix, producer.WriteReady.Name())

	woken := make(chan bool, 1)
	go func() {
		ok, _ := consumer.WriteReady.Wait(2 * time.Second)
		woken <- ok
	}()
	time.Sleep(20 * time.Millisecond)
	s.Require().NoError(producer.WriteReady.Set())
	s.Require().True(<-woken)

	// the other direction is an independent signal
	ok, _ := producer.ReadReady.Wait(10 * time.Millisecond)
	s.Require().False(ok)
	s.Require().NoError(consumer.ReadReady.Set())
	ok, _ = producer.ReadReady.Wait(100 * time.Millisecond)
	s.Require().True(ok)
}

func (s *SignalTestSuite) TestExactlyOneWaiterObservesSet() {
	ctx := context.Background()
	sig, err := OpenSignal(ctx, s.name)
	s.Require().NoError(err)
	defer func() { _ = sig.Close() }()

	var observed atomic.Int32
	done := make(chan struct{})
	for i := 0; i < 4; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			if ok, _ := sig.Wait(200 * time.Millisecond); ok {
				observed.Add(1)
			}
		}()
	}
	time.Sleep(20 * time.Millisecond)
	s.Require().NoError(sig.Set())
	for i := 0; i < 4; i++ {
		<-done
	}
	s.Require().Equal(int32(1), observed.Load())
}

func (s *SignalTestSuite) TestTryWaitAndIsSet() {
	sig, err := OpenSignal(context.Background(), s.name)
	s.Require().NoError(err)
	defer func() { _ = sig.Close() }()

	set, err := sig.IsSet()
	s.Require().NoError(err)
	s.Require().False(set)
	ok, err := sig.TryWait()
	s.Require().NoError(err)
	s.Require().False(ok)

	s.Require().NoError(sig.Set())
	set, _ = sig.IsSet()
	s.Require().True(set)
	set, _ = sig.IsSet()
	s.Require().True(set, "IsSet must not consume")

	ok, err = sig.TryWait()
	s.Require().NoError(err)
	s.Require().True(ok)
	set, _ = sig.IsSet()
	s.Require().False(set)
	ok, _ = sig.TryWait()
	s.Require().False(ok)
}

func (s *SignalTestSuite) TestClosed() {
	sig, err := OpenSignal(context.Background(), s.name)
	s.Require().NoError(err)
	s.Require().NoError(sig.Close())
	s.Require().ErrorIs(sig.Set(), ErrClosed)
	_, err = sig.Wait(time.Millisecond)
	s.Require().ErrorIs(err, ErrClosed)
}

func TestSignalTestSuite(t *testing.T) {
	suite.Run(t, new(SignalTestSuite))
}
