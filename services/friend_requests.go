package services

import (
	"context"

	"go.uber.org/zap"

	"saadSocialAPI/internal/account"
	"saadSocialAPI/internal/apperr"
	"saadSocialAPI/internal/logger"
)

// SendFriendRequest records fromID → toID as pending on both accounts.
func (s *DataService) SendFriendRequest(ctx context.Context, fromID, toID string) error {
	return s.transition(ctx, account.TransitionSend, fromID, toID)
}

// AcceptFriendRequest is called by the receiver of a pending request from
// requesterID. Both accounts end up listing each other as friends.
func (s *DataService) AcceptFriendRequest(ctx context.Context, userID, requesterID string) error {
	return s.transition(ctx, account.TransitionAccept, userID, requesterID)
}

// RejectFriendRequest drops the pending request from requesterID on both
// accounts.
func (s *DataService) RejectFriendRequest(ctx context.Context, userID, requesterID string) error {
	return s.transition(ctx, account.TransitionReject, userID, requesterID)
}

// transition checks legality against the actor's current record, then
// writes the actor's document and the target's document one after the
// other. The pair is not atomic: if the second write fails the first stays
// applied, and two concurrent transitions on the same pair may interleave.
func (s *DataService) transition(ctx context.Context, t account.Transition, actorID, targetID string) error {
	if actorID == targetID {
		return apperr.New(apperr.KindInvalidTransition, "error_invalid_transition", "cannot send a friend request to yourself")
	}
	actor, err := s.GetUser(ctx, actorID)
	if err != nil {
		return err
	}
	if actor == nil {
		return apperr.New(apperr.KindNotFound, "error_not_found", "account not found")
	}
	target, err := s.GetUser(ctx, targetID)
	if err != nil {
		return err
	}
	if target == nil {
		return apperr.New(apperr.KindNotFound, "error_not_found", "account not found")
	}

	state := actor.RelationTo(targetID)
	if !t.Allowed(state) {
		return apperr.New(apperr.KindInvalidTransition, "error_invalid_transition",
			string(t)+" is not allowed while "+string(state))
	}

	forActor, forTarget := t.Plan(actorID, targetID)
	if err := s.users.ApplyRelation(ctx, actorID, forActor); err != nil {
		return backendWrite("could not update requester", err)
	}
	if err := s.users.ApplyRelation(ctx, targetID, forTarget); err != nil {
		logger.L().Error("Friend request half applied",
			zap.String("transition", string(t)),
			zap.String("actor", actorID),
			zap.String("target", targetID),
			zap.Error(err))
		return backendWrite("could not update target", err)
	}

	logger.L().Info("Friend request transition",
		zap.String("transition", string(t)),
		zap.String("actor", actorID),
		zap.String("target", targetID))
	return nil
}

// Relations annotates search results with the discovery button state seen
// from viewer.
func Relations(viewer *account.Account, results []*account.Account) []account.SearchResult {
	out := make([]account.SearchResult, 0, len(results))
	for _, r := range results {
		state := viewer.RelationTo(r.ID)
		out = append(out, account.SearchResult{Account: r, State: state, Label: state.Label()})
	}
	return out
}
