package seed

import (
	"context"
	"fmt"
	"strings"

	"talkhub/internal/models"

	"github.com/google/uuid"
)

const (
	maxPicturesPerPost = 3
	maxCommentsPerPost = 4
	maxWatchesPerUser  = 5
)

var sampleClips = []string{
	"https://www.youtube.com/watch?v=dQw4w9WgXcQ",
	"https://www.youtube.com/watch?v=9bZkp7q19f0",
	"https://www.youtube.com/watch?v=3JZ_D3ELwOQ",
}

// SeedVolume generates numProfiles random profiles with postsPerProfile
// posts each, then sprinkles watches, comments, likes and bookmarks over them.
func (s *Seeder) SeedVolume(ctx context.Context, numProfiles, postsPerProfile int) (*Result, error) {
	res := &Result{}

	profiles := make([]*models.Profile, 0, numProfiles)
	for i := 0; i < numProfiles; i++ {
		p := s.buildProfile(i)
		if err := s.profiles.Create(ctx, p); err != nil {
			return nil, fmt.Errorf("profile %q: %w", p.Username, err)
		}
		profiles = append(profiles, p)
	}
	res.Profiles = len(profiles)
	s.logger.InfoContext(ctx, "created profiles", "count", res.Profiles)

	for _, p := range profiles {
		for _, idx := range s.pick(len(profiles), s.faker.IntRange(0, maxWatchesPerUser)) {
			target := profiles[idx]
			if target.ID == p.ID {
				continue
			}
			if err := s.profiles.Watch(ctx, p.ID, target.ID); err != nil {
				return nil, err
			}
			res.Watches++
		}
	}

	for _, author := range profiles {
		for j := 0; j < postsPerProfile; j++ {
			post, pictures, videos := s.buildPost(author)
			if err := s.posts.CreateWithMedia(ctx, post, pictures, videos); err != nil {
				return nil, fmt.Errorf("post by %q: %w", author.Username, err)
			}
			res.Posts++

			if err := s.decoratePost(ctx, post, profiles, res); err != nil {
				return nil, err
			}
		}
	}
	s.logger.InfoContext(ctx, "created posts", "count", res.Posts, "comments", res.Comments)

	return res, nil
}

// decoratePost adds comments, likes and bookmarks from random profiles.
func (s *Seeder) decoratePost(ctx context.Context, post *models.Post, profiles []*models.Profile, res *Result) error {
	for n := s.faker.IntRange(0, maxCommentsPerPost); n > 0; n-- {
		author := profiles[s.faker.IntRange(0, len(profiles)-1)]
		comment := &models.Comment{Content: s.faker.Sentence(s.faker.IntRange(4, 14)), PostID: post.ID, ProfileID: author.ID}
		if err := s.comments.Create(ctx, comment); err != nil {
			return err
		}
		res.Comments++

		if s.faker.Bool() {
			liker := profiles[s.faker.IntRange(0, len(profiles)-1)]
			if err := s.like(ctx, liker.UserID, models.EntityComment, comment.ID); err != nil {
				return err
			}
			res.Likes++
		}
	}

	for _, idx := range s.pick(len(profiles), s.faker.IntRange(0, len(profiles)/2)) {
		if err := s.like(ctx, profiles[idx].UserID, models.EntityPost, post.ID); err != nil {
			return err
		}
		res.Likes++
	}

	if s.faker.IntRange(0, 3) == 0 {
		reader := profiles[s.faker.IntRange(0, len(profiles)-1)]
		created, err := s.bookmarks.Create(ctx, reader.UserID, post.ID)
		if err != nil {
			return err
		}
		if created {
			res.Bookmarks++
		}
	}
	return nil
}

func (s *Seeder) buildProfile(i int) *models.Profile {
	// the index suffix keeps usernames unique across a run
	name := strings.ToLower(s.faker.Username())
	return &models.Profile{
		UserID:   uuid.New(),
		Username: fmt.Sprintf("%s_%d", name, i),
		Bio:      s.faker.Sentence(s.faker.IntRange(5, 12)),
		Avatar:   fmt.Sprintf("https://picsum.photos/seed/avatar-%s/200/200", s.faker.UUID()),
	}
}

func (s *Seeder) buildPost(author *models.Profile) (*models.Post, []string, []string) {
	post := &models.Post{
		Content:   s.faker.Paragraph(1, 3, 12, "\n"),
		ProfileID: author.ID,
	}

	pictures := make([]string, 0, maxPicturesPerPost)
	for n := s.faker.IntRange(0, maxPicturesPerPost); n > 0; n-- {
		pictures = append(pictures, fmt.Sprintf("https://picsum.photos/seed/%s/800/800", s.faker.UUID()))
	}

	var videos []string
	if s.faker.IntRange(0, 4) == 0 {
		videos = append(videos, sampleClips[s.faker.IntRange(0, len(sampleClips)-1)])
	}
	return post, pictures, videos
}

// pick returns up to k distinct indexes in [0, n).
func (s *Seeder) pick(n, k int) []int {
	if k > n {
		k = n
	}
	if k <= 0 {
		return nil
	}
	return s.faker.Rand.Perm(n)[:k]
}
