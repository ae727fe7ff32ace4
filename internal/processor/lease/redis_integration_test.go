//go:build integration

package lease_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"detector/internal/processor/lease"
	"detector/pkg/testutil/containers"
)

type RedisLeaseSuite struct {
	suite.Suite
	redis *containers.RedisContainer
}

func TestRedisLeaseSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisLeaseSuite))
}

func (s *RedisLeaseSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
}

func (s *RedisLeaseSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisLeaseSuite) TestOnlyOneReplicaHoldsTheLease() {
	ctx := context.Background()
	const replicas = 8

	var holders atomic.Int32
	var wg sync.WaitGroup
	for range replicas {
		l, err := lease.NewRedis(s.redis.Client)
		s.Require().NoError(err)
		wg.Go(func() {
			held, err := l.Acquire(ctx)
			s.NoError(err)
			if held {
				holders.Add(1)
			}
		})
	}
	wg.Wait()

	s.Equal(int32(1), holders.Load())
}

func (s *RedisLeaseSuite) TestLeaseExpires() {
	ctx := context.Background()
	first, err := lease.NewRedis(s.redis.Client, lease.WithTTL(200*time.Millisecond))
	s.Require().NoError(err)
	second, err := lease.NewRedis(s.redis.Client)
	s.Require().NoError(err)

	held, err := first.Acquire(ctx)
	s.Require().NoError(err)
	s.Require().True(held)

	s.Eventually(func() bool {
		held, err := second.Acquire(ctx)
		return err == nil && held
	}, 2*time.Second, 50*time.Millisecond)
}

func (s *RedisLeaseSuite) TestRenewedLeaseOutlivesItsTTL() {
	ctx := context.Background()
	first, err := lease.NewRedis(s.redis.Client, lease.WithTTL(300*time.Millisecond))
	s.Require().NoError(err)
	second, err := lease.NewRedis(s.redis.Client)
	s.Require().NoError(err)

	held, err := first.Acquire(ctx)
	s.Require().NoError(err)
	s.Require().True(held)

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		renewed, err := first.Renew(ctx)
		s.Require().NoError(err)
		s.Require().True(renewed)

		held, err := second.Acquire(ctx)
		s.Require().NoError(err)
		s.Require().False(held, "renewed lease must stay exclusive")

		time.Sleep(100 * time.Millisecond)
	}
}
