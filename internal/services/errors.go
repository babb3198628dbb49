// Package services defines the business logic for accounts, XP awards,
// quests, inventory, content gating, and daily rewards. This file centralizes
// common service-level error values so that they can be consistently returned
// by service methods and checked by callers.
//
// These errors are intended for internal use by the service layer; translation
// into user-facing messages or HTTP status codes is performed at the handler
// layer.
package services

import "errors"

// Account and auth errors.
var (
	// ErrUserNotFound indicates that the requested user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrUsernameTaken is returned at registration when the username is in use.
	ErrUsernameTaken = errors.New("username already taken")

	// ErrEmailTaken is returned at registration when the email is in use.
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidCredentials is returned when a login fails. It deliberately
	// does not distinguish an unknown username from a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInactiveAccount is returned when a deactivated account tries to
	// log in or refresh.
	ErrInactiveAccount = errors.New("account is inactive")

	// ErrInvalidRefreshToken is returned when a refresh token is unknown,
	// expired, or revoked.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
)

// XP award errors.
var (
	// ErrXPAmountInvalid is returned when an award amount is zero or negative.
	ErrXPAmountInvalid = errors.New("xp amount must be positive")

	// ErrXPCapExceeded is returned when an award amount is above the cap
	// configured for its source.
	ErrXPCapExceeded = errors.New("xp amount exceeds the cap for this source")
)

// Reading, gating, and daily-reward errors.
var (
	// ErrAlreadyRead indicates that the user has already been rewarded for
	// reading this post.
	ErrAlreadyRead = errors.New("post already read")

	// ErrAlreadyUnlocked indicates that the post is already unlocked for
	// this user.
	ErrAlreadyUnlocked = errors.New("post already unlocked")

	// ErrItemNotHeld is returned when a user tries to use an item that is
	// not in their inventory.
	ErrItemNotHeld = errors.New("item not in inventory")

	// ErrDailyAlreadyClaimed is returned when today's reward was already
	// claimed; the result carries when the next claim opens.
	ErrDailyAlreadyClaimed = errors.New("daily reward already claimed today")
)

// Quest errors.
var (
	// ErrQuestNotFound indicates that the quest does not exist or is inactive.
	ErrQuestNotFound = errors.New("quest not found")

	// ErrQuestCompleted is returned when submitting an answer to a quest the
	// user has already completed.
	ErrQuestCompleted = errors.New("quest already completed")

	// ErrEmptyAnswer is returned when a submission contains no answer.
	ErrEmptyAnswer = errors.New("answer is empty")

	// ErrInvalidQuest is returned when admin-supplied quest content is
	// malformed (missing answer, unknown match policy).
	ErrInvalidQuest = errors.New("invalid quest definition")
)
