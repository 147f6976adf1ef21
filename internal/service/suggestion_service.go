package service

import (
	"context"
	"fmt"
	"sort"

	"infinity/config"
	"infinity/internal/domain"
	"infinity/internal/models"

	"golang.org/x/sync/errgroup"
)

type friendGraph interface {
	FriendIDs(ctx context.Context, userID uint) ([]uint, error)
	PendingPeerIDs(ctx context.Context, userID uint) ([]uint, error)
	AcceptedEdges(ctx context.Context, ids []uint) ([]models.Friendship, error)
	CountFriends(ctx context.Context, ids []uint) (map[uint]int64, error)
}

type blockLister interface {
	BlockedPeerIDs(ctx context.Context, userID uint) ([]uint, error)
}

type dismissalStore interface {
	Dismiss(ctx context.Context, userID, candidateID uint) error
	DismissedIDs(ctx context.Context, userID uint) ([]uint, error)
}

type randomSampler interface {
	RandomIDs(ctx context.Context, exclude []uint, limit int) ([]uint, error)
}

type Suggestion struct {
	models.UserSummary
	MutualFriendsCount int                  `json:"mutualFriendsCount"`
	MutualFriends      []models.UserSummary `json:"mutualFriends"`
	FriendsCount       int64                `json:"friendsCount"`
}

// Ranked is a candidate and the viewer's friends it is also friends with, ascending.
type Ranked struct {
	UserID uint
	Mutual []uint
}

// RankCandidates scores friends-of-friends of viewerID by mutual friend count, highest first,
// ties by ascending id. edges are accepted friendships touching friends. Friends, the viewer
// and exclude never appear. limit <= 0 keeps every candidate.
func RankCandidates(viewerID uint, friends []uint, edges []models.Friendship, exclude []uint, limit int) []Ranked {
	isFriend := make(map[uint]struct{}, len(friends))
	for _, f := range friends {
		isFriend[f] = struct{}{}
	}
	skip := make(map[uint]struct{}, len(exclude)+1)
	skip[viewerID] = struct{}{}
	for _, id := range exclude {
		skip[id] = struct{}{}
	}

	mutual := make(map[uint]map[uint]struct{})
	for _, e := range edges {
		for _, pair := range [2][2]uint{{e.RequesterID, e.AddresseeID}, {e.AddresseeID, e.RequesterID}} {
			via, cand := pair[0], pair[1]
			if _, ok := isFriend[via]; !ok {
				continue
			}
			if _, ok := isFriend[cand]; ok {
				continue
			}
			if _, ok := skip[cand]; ok {
				continue
			}
			if mutual[cand] == nil {
				mutual[cand] = make(map[uint]struct{})
			}
			mutual[cand][via] = struct{}{}
		}
	}

	out := make([]Ranked, 0, len(mutual))
	for cand, vias := range mutual {
		r := Ranked{UserID: cand, Mutual: make([]uint, 0, len(vias))}
		for v := range vias {
			r.Mutual = append(r.Mutual, v)
		}
		sort.Slice(r.Mutual, func(i, j int) bool { return r.Mutual[i] < r.Mutual[j] })
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i].Mutual) != len(out[j].Mutual) {
			return len(out[i].Mutual) > len(out[j].Mutual)
		}
		return out[i].UserID < out[j].UserID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

type SuggestionService struct {
	graph      friendGraph
	blocks     blockLister
	dismissals dismissalStore
	users      userDirectory
	sampler    randomSampler
	cfg        config.SuggestionsConfig
}

func NewSuggestionService(graph friendGraph, blocks blockLister, dismissals dismissalStore, users userDirectory, sampler randomSampler, cfg config.SuggestionsConfig) *SuggestionService {
	return &SuggestionService{graph: graph, blocks: blocks, dismissals: dismissals, users: users, sampler: sampler, cfg: cfg}
}

func (s *SuggestionService) clamp(limit int) int {
	if limit < 1 {
		return s.cfg.DefaultLimit
	}
	if limit > s.cfg.MaxLimit {
		return s.cfg.MaxLimit
	}
	return limit
}

type exclusions struct {
	friends []uint
	others  []uint
}

func (e exclusions) all(viewerID uint) []uint {
	out := make([]uint, 0, len(e.friends)+len(e.others)+1)
	out = append(out, viewerID)
	out = append(out, e.friends...)
	return append(out, e.others...)
}

func (s *SuggestionService) loadExclusions(ctx context.Context, userID uint) (exclusions, error) {
	var friends, pending, blocked, dismissed []uint
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		friends, err = s.graph.FriendIDs(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		pending, err = s.graph.PendingPeerIDs(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		blocked, err = s.blocks.BlockedPeerIDs(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		dismissed, err = s.dismissals.DismissedIDs(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return exclusions{}, err
	}
	others := make([]uint, 0, len(pending)+len(blocked)+len(dismissed))
	others = append(others, pending...)
	others = append(others, blocked...)
	others = append(others, dismissed...)
	return exclusions{friends: friends, others: others}, nil
}

// SuggestFriends ranks friends of friends by mutual friends. With no candidates it falls back
// to a random sample.
func (s *SuggestionService) SuggestFriends(ctx context.Context, userID uint, limit int) ([]Suggestion, error) {
	limit = s.clamp(limit)
	ex, err := s.loadExclusions(ctx, userID)
	if err != nil {
		return nil, err
	}

	var ranked []Ranked
	if len(ex.friends) > 0 {
		edges, err := s.graph.AcceptedEdges(ctx, ex.friends)
		if err != nil {
			return nil, err
		}
		ranked = RankCandidates(userID, ex.friends, edges, ex.others, 0)
	}
	if len(ranked) == 0 {
		return s.random(ctx, userID, ex, limit)
	}

	out := make([]Suggestion, 0, limit)
	for start := 0; start < len(ranked) && len(out) < limit; start += limit {
		end := start + limit
		if end > len(ranked) {
			end = len(ranked)
		}
		batch, err := s.build(ctx, ranked[start:end])
		if err != nil {
			return nil, err
		}
		for _, sg := range batch {
			if len(out) == limit {
				break
			}
			out = append(out, sg)
		}
	}
	if len(out) == 0 {
		return s.random(ctx, userID, ex, limit)
	}
	return out, nil
}

// SuggestRandom samples users the viewer has no relation with.
func (s *SuggestionService) SuggestRandom(ctx context.Context, userID uint, limit int) ([]Suggestion, error) {
	ex, err := s.loadExclusions(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.random(ctx, userID, ex, s.clamp(limit))
}

func (s *SuggestionService) random(ctx context.Context, userID uint, ex exclusions, limit int) ([]Suggestion, error) {
	ids, err := s.sampler.RandomIDs(ctx, ex.all(userID), limit)
	if err != nil {
		return nil, err
	}
	ranked := make([]Ranked, 0, len(ids))
	for _, id := range ids {
		ranked = append(ranked, Ranked{UserID: id})
	}
	return s.build(ctx, ranked)
}

// build loads summaries and friend counts. Candidates that no longer exist are dropped.
func (s *SuggestionService) build(ctx context.Context, ranked []Ranked) ([]Suggestion, error) {
	if len(ranked) == 0 {
		return []Suggestion{}, nil
	}
	preview := s.cfg.MutualPreview
	ids := make([]uint, 0, len(ranked)*(preview+1))
	cands := make([]uint, 0, len(ranked))
	for _, r := range ranked {
		ids = append(ids, r.UserID)
		cands = append(cands, r.UserID)
		for i := 0; i < len(r.Mutual) && i < preview; i++ {
			ids = append(ids, r.Mutual[i])
		}
	}

	var (
		sums   map[uint]models.UserSummary
		counts map[uint]int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		sums, err = s.users.Summaries(gctx, ids)
		return err
	})
	g.Go(func() (err error) {
		counts, err = s.graph.CountFriends(gctx, cands)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]Suggestion, 0, len(ranked))
	for _, r := range ranked {
		sum, ok := sums[r.UserID]
		if !ok {
			continue
		}
		sg := Suggestion{
			UserSummary:        sum,
			MutualFriendsCount: len(r.Mutual),
			MutualFriends:      []models.UserSummary{},
			FriendsCount:       counts[r.UserID],
		}
		for i := 0; i < len(r.Mutual) && len(sg.MutualFriends) < preview; i++ {
			if m, ok := sums[r.Mutual[i]]; ok {
				sg.MutualFriends = append(sg.MutualFriends, m)
			}
		}
		out = append(out, sg)
	}
	return out, nil
}

// Dismiss hides candidateID from userID's suggestions on every device.
func (s *SuggestionService) Dismiss(ctx context.Context, userID, candidateID uint) error {
	if candidateID == 0 || candidateID == userID {
		return fmt.Errorf("%w: invalid candidate", domain.ErrValidation)
	}
	if _, err := s.users.GetByID(ctx, candidateID); err != nil {
		return err
	}
	return s.dismissals.Dismiss(ctx, userID, candidateID)
}
