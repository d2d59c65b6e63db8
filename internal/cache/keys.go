package cache

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
)

// Cache keys are scoped by view kind and owner so a user's views can never
// collide with another user's. Invalidation triggers:
//
//	subscriptions:user:<uid>   any subscription write for that user
//	subscription:active:<uid>  any subscription write for that user
//	plan:<pid>                 that plan's save
//	plans:all                  any plan save, any feature save

func UserSubscriptionsKey(userID snowflake.ID) string {
	return fmt.Sprintf("subscriptions:user:%d", userID)
}

func ActiveSubscriptionKey(userID snowflake.ID) string {
	return fmt.Sprintf("subscription:active:%d", userID)
}

func PlanKey(planID snowflake.ID) string {
	return fmt.Sprintf("plan:%d", planID)
}

const PlansAllKey = "plans:all"

// UserKeys returns every user-scoped key for invalidation after a
// subscription write.
func UserKeys(userID snowflake.ID) []string {
	return []string{
		UserSubscriptionsKey(userID),
		ActiveSubscriptionKey(userID),
	}
}
