package services

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbourn/go-companion-backend/internal/domain"
	"github.com/tbourn/go-companion-backend/internal/repo"
)

func newMoments(t *testing.T) (*Moments, *fixture, []*domain.Moment) {
	t.Helper()
	f := newFixture(t, Options{})
	ctx := context.Background()
	now := time.Now().UTC()
	posts := []*domain.Moment{
		{CharacterID: f.free.ID, Content: "older", CreatedAt: now.Add(-time.Hour)},
		{CharacterID: f.premium.ID, Content: "newer", CreatedAt: now},
	}
	for _, p := range posts {
		require.NoError(t, repo.CreateMoment(ctx, f.db, p))
	}
	return &Moments{DB: f.db, IDs: newNode(t)}, f, posts
}

func TestMoments_ListNewestFirstWithLikes(t *testing.T) {
	m, f, posts := newMoments(t)
	ctx := context.Background()

	res, err := m.ToggleLike(ctx, "u1", posts[0].ID)
	require.NoError(t, err)
	assert.True(t, res.Liked)
	assert.Equal(t, int64(1), res.LikeCount)

	list, total, err := m.List(ctx, "u1", 0, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, list, 2)
	assert.Equal(t, "newer", list[0].Content)
	assert.False(t, list[0].IsLiked)
	assert.True(t, list[1].IsLiked)
	require.NotNil(t, list[0].Character)
	assert.Empty(t, list[0].ImageList)

	mine, total, err := m.List(ctx, "u1", f.free.ID, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "older", mine[0].Content)

	others, _, err := m.List(ctx, "u2", 0, 1, 10)
	require.NoError(t, err)
	assert.False(t, others[1].IsLiked)
}

func TestMoments_ToggleLikeTwice(t *testing.T) {
	m, _, posts := newMoments(t)
	ctx := context.Background()

	_, err := m.ToggleLike(ctx, "u1", posts[1].ID)
	require.NoError(t, err)
	_, err = m.ToggleLike(ctx, "u2", posts[1].ID)
	require.NoError(t, err)
	res, err := m.ToggleLike(ctx, "u1", posts[1].ID)
	require.NoError(t, err)
	assert.False(t, res.Liked)
	assert.Equal(t, int64(1), res.LikeCount)

	_, err = m.ToggleLike(ctx, "u1", 9999)
	assert.ErrorIs(t, err, ErrMomentNotFound)
}

func TestMoments_CommentAndGet(t *testing.T) {
	m, _, posts := newMoments(t)
	ctx := context.Background()

	_, err := m.Comment(ctx, "u1", posts[0].ID, "   ")
	assert.ErrorIs(t, err, ErrEmptyContent)
	_, err = m.Comment(ctx, "u1", posts[0].ID, strings.Repeat("x", 501))
	assert.ErrorIs(t, err, ErrContentTooLong)
	_, err = m.Comment(ctx, "u1", 9999, "hello")
	assert.ErrorIs(t, err, ErrMomentNotFound)

	c1, err := m.Comment(ctx, "u1", posts[0].ID, " lovely ")
	require.NoError(t, err)
	assert.Equal(t, "lovely", c1.Content)
	_, err = m.Comment(ctx, "u2", posts[0].ID, "agreed")
	require.NoError(t, err)

	d, err := m.Get(ctx, "u1", posts[0].ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), d.CommentCount)
	require.Len(t, d.Comments, 2)
	assert.Equal(t, "lovely", d.Comments[0].Content)
	assert.Equal(t, "agreed", d.Comments[1].Content)

	_, err = m.Get(ctx, "u1", 9999)
	assert.ErrorIs(t, err, ErrMomentNotFound)
}

func TestMoments_ConcurrentSameUserLikesAndComments(t *testing.T) {
	m, _, posts := newMoments(t)
	ctx := context.Background()
	post := posts[0].ID

	const workers = 8
	var (
		wg    sync.WaitGroup
		start = make(chan struct{})
		errs  = make([]error, 2*workers)
	)
	for i := 0; i < workers; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = m.ToggleLike(ctx, "u1", post)
		}(i)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[workers+i] = m.Comment(ctx, "u1", post, "nice")
		}(i)
	}
	close(start)
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "call %d", i)
	}

	got, err := repo.GetMoment(ctx, m.DB, post)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.LikeCount, "an even number of toggles leaves the post unliked")
	assert.Equal(t, int64(workers), got.CommentCount)
	assert.Zero(t, m.locks.size(), "lock table must drain")
}
