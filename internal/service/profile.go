package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sakif/found/internal/apperror"
	"github.com/sakif/found/internal/auth"
	"github.com/sakif/found/internal/model"
	"github.com/sakif/found/internal/repository"
)

// ProfileService reads and writes a user's profile aggregate: the profiles
// row plus its skills and interests collections.
//
// The acting user is always passed in as a *auth.Session. A nil session
// means nobody is signed in; reads then return no profile and writes fail
// with apperror.NoSession.
//
// WRITE MODEL:
// An update is up to three steps, in this order:
//
//  1. upsert the scalar columns (email from the session, updated_at = now)
//  2. if the patch carries skills (even empty): replace all skill rows
//  3. if the patch carries interests (even empty): replace all interest rows
//
// Each replace is its own transaction, so concurrent replaces of one
// collection never interleave into a merged set. The three steps together are
// NOT atomic unless atomic writes are enabled and the store is a
// repository.Transactor.
type ProfileService struct {
	repo   repository.ProfileRepository
	tx     repository.Transactor // nil unless atomic writes are on
	logger *slog.Logger
	now    func() time.Time
}

// ProfileOption configures a ProfileService.
type ProfileOption func(*ProfileService)

// WithAtomicWrites makes Update run all of its steps in one transaction.
// It has no effect when the repository cannot open one.
func WithAtomicWrites(enabled bool) ProfileOption {
	return func(s *ProfileService) {
		if !enabled {
			s.tx = nil
			return
		}
		if tx, ok := s.repo.(repository.Transactor); ok {
			s.tx = tx
		}
	}
}

// WithClock overrides the time source used for updated_at.
func WithClock(now func() time.Time) ProfileOption {
	return func(s *ProfileService) {
		s.now = now
	}
}

// NewProfileService creates a ProfileService.
func NewProfileService(repo repository.ProfileRepository, logger *slog.Logger, opts ...ProfileOption) *ProfileService {
	s := &ProfileService{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Atomic reports whether updates run in a single transaction.
func (s *ProfileService) Atomic() bool {
	return s.tx != nil
}

// Load returns the session's profile with both collections.
//
// The profile row and the two collections are three independent reads run
// concurrently, with no transaction around them. A missing profile row is not
// an error: Load returns (nil, nil). Any other failure is
// apperror.ErrReadFailed.
func (s *ProfileService) Load(ctx context.Context, sess *auth.Session) (*model.Profile, error) {
	if sess == nil {
		return nil, nil
	}
	id := sess.UserID

	var (
		profile   *model.Profile
		skills    []string
		interests []string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.repo.GetProfile(gctx, id)
		if errors.Is(err, apperror.ErrNotFound) {
			return nil
		}
		profile = p
		return err
	})
	g.Go(func() error {
		var err error
		skills, err = s.repo.ListTags(gctx, model.TagSkills, id)
		return err
	})
	g.Go(func() error {
		var err error
		interests, err = s.repo.ListTags(gctx, model.TagInterests, id)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, apperror.ReadFailed("profile", err)
	}
	if profile == nil {
		return nil, nil
	}

	profile.Skills = nonNil(skills)
	profile.Interests = nonNil(interests)
	return profile, nil
}

// Fetch is Load for callers that only render: failures are logged and
// reported as "no profile".
func (s *ProfileService) Fetch(ctx context.Context, sess *auth.Session) *model.Profile {
	profile, err := s.Load(ctx, sess)
	if err != nil {
		s.logger.Error("fetching profile",
			slog.String("userID", sess.UserID),
			slog.String("error", errorDetail(err)),
		)
		return nil
	}
	return profile
}

// Update applies patch to the session's profile.
//
// Omitted scalars keep their stored value. A non-nil Skills or Interests
// replaces that collection entirely, after trimming, dropping blanks and
// de-duplicating. A failed step leaves the earlier steps in place unless
// atomic writes are on.
func (s *ProfileService) Update(ctx context.Context, sess *auth.Session, patch model.ProfilePatch) error {
	if sess == nil || sess.UserID == "" {
		return apperror.NoSession()
	}

	if patch.Skills != nil {
		patch.Skills = model.TagsPtr(model.NormalizeTags(*patch.Skills)...)
	}
	if patch.Interests != nil {
		patch.Interests = model.TagsPtr(model.NormalizeTags(*patch.Interests)...)
	}

	now := s.now().UTC()

	var err error
	if s.tx != nil {
		err = s.tx.WithinTx(ctx, func(repo repository.ProfileRepository) error {
			return applyPatch(ctx, repo, sess, patch, now)
		})
	} else {
		err = applyPatch(ctx, s.repo, sess, patch, now)
	}
	if err != nil {
		s.logger.Error("updating profile",
			slog.String("userID", sess.UserID),
			slog.String("error", errorDetail(err)),
		)
		return err
	}

	s.logger.Info("profile updated",
		slog.String("userID", sess.UserID),
		slog.Bool("skills", patch.Skills != nil),
		slog.Bool("interests", patch.Interests != nil),
	)
	return nil
}

func applyPatch(ctx context.Context, repo repository.ProfileRepository, sess *auth.Session, patch model.ProfilePatch, now time.Time) error {
	if err := repo.UpsertProfile(ctx, sess.UserID, sess.Email, patch, now); err != nil {
		return apperror.WriteFailed("profile", err)
	}
	if patch.Skills != nil {
		if err := repo.ReplaceTags(ctx, model.TagSkills, sess.UserID, *patch.Skills); err != nil {
			return apperror.WriteFailed("skills", err)
		}
	}
	if patch.Interests != nil {
		if err := repo.ReplaceTags(ctx, model.TagInterests, sess.UserID, *patch.Interests); err != nil {
			return apperror.WriteFailed("interests", err)
		}
	}
	return nil
}

func nonNil(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

// errorDetail includes the store cause, which AppError.Error hides.
func errorDetail(err error) string {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) && appErr.Cause != nil {
		return appErr.Message + ": " + appErr.Cause.Error()
	}
	return err.Error()
}
