package statemachine

import (
	"fmt"
	"strings"

	"qrmenu-api/models"
)

type Actor string

const (
	ActorRestaurant Actor = "restaurant"
	ActorRider      Actor = "rider"
	ActorAdmin      Actor = "admin"
)

// Transition defines a valid state change and who can perform it
type Transition struct {
	From  models.OrderStatus `json:"from"`
	To    models.OrderStatus `json:"to"`
	Actor Actor              `json:"actor"`
}

// lifecycle lists statuses in their only allowed direction of travel.
var lifecycle = []models.OrderStatus{
	models.StatusPending,
	models.StatusConfirmed,
	models.StatusCooking,
	models.StatusOutForDelivery,
	models.StatusDelivered,
}

var validTransitions = []Transition{
	{From: models.StatusPending, To: models.StatusConfirmed, Actor: ActorRestaurant},
	{From: models.StatusConfirmed, To: models.StatusCooking, Actor: ActorRestaurant},
	{From: models.StatusCooking, To: models.StatusOutForDelivery, Actor: ActorRestaurant},
	// Table orders are served without a rider.
	{From: models.StatusCooking, To: models.StatusDelivered, Actor: ActorRestaurant},
	{From: models.StatusOutForDelivery, To: models.StatusDelivered, Actor: ActorRider},
}

type transitionKey struct {
	From  models.OrderStatus
	To    models.OrderStatus
	Actor Actor
}

var transitionMap = func() map[transitionKey]bool {
	m := make(map[transitionKey]bool)
	for _, t := range validTransitions {
		m[transitionKey{t.From, t.To, t.Actor}] = true
	}
	return m
}()

func rank(s models.OrderStatus) int {
	for i, st := range lifecycle {
		if st == s {
			return i
		}
	}
	return -1
}

// Valid reports whether s is a known order status.
func Valid(s models.OrderStatus) bool {
	return rank(s) >= 0
}

// IsForward reports whether to lies strictly after from in the lifecycle.
func IsForward(from, to models.OrderStatus) bool {
	f, t := rank(from), rank(to)
	return f >= 0 && t >= 0 && t > f
}

// ValidTransitionsFrom returns all valid next states from a given state
func ValidTransitionsFrom(status models.OrderStatus) []models.OrderStatus {
	var nexts []models.OrderStatus
	seen := map[models.OrderStatus]bool{}
	for _, t := range validTransitions {
		if t.From == status && !seen[t.To] {
			nexts = append(nexts, t.To)
			seen[t.To] = true
		}
	}
	return nexts
}

// CanTransition checks if a given actor can move from one state to another.
// Admins may move an order any number of steps forward.
func CanTransition(from, to models.OrderStatus, actor Actor) error {
	if actor == ActorAdmin {
		if IsForward(from, to) {
			return nil
		}
		return fmt.Errorf("invalid transition: %s → %s moves backwards or names an unknown status", from, to)
	}
	if transitionMap[transitionKey{From: from, To: to, Actor: actor}] {
		return nil
	}
	return fmt.Errorf("invalid transition: %s → %s is not allowed for actor '%s'. Valid transitions from %s are: %s",
		from, to, actor, from, describeValidFrom(from))
}

func describeValidFrom(status models.OrderStatus) string {
	nexts := ValidTransitionsFrom(status)
	if len(nexts) == 0 {
		return "none (terminal state)"
	}
	names := make([]string, len(nexts))
	for i, s := range nexts {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}

// GetAllTransitions returns the full state machine for documentation
func GetAllTransitions() []Transition {
	return validTransitions
}
