package domain

import (
	"strings"
	"time"
)

type RewardType string

const (
	RewardPoints      RewardType = "points"
	RewardBadge       RewardType = "badge"
	RewardCertificate RewardType = "certificate"
	RewardBonus       RewardType = "bonus"
	RewardDiscount    RewardType = "discount"
)

func ParseRewardType(raw string) (RewardType, bool) {
	switch RewardType(strings.ToLower(strings.TrimSpace(raw))) {
	case RewardPoints:
		return RewardPoints, true
	case RewardBadge:
		return RewardBadge, true
	case RewardCertificate:
		return RewardCertificate, true
	case RewardBonus:
		return RewardBonus, true
	case RewardDiscount:
		return RewardDiscount, true
	default:
		return "", false
	}
}

type RewardStatus string

const (
	RewardAvailable RewardStatus = "available"
	RewardClaimed   RewardStatus = "claimed"
	RewardExpired   RewardStatus = "expired"
)

type Reward struct {
	ID        int64        `json:"id"`
	Type      RewardType   `json:"reward_type"`
	Value     string       `json:"reward_value"`
	Status    RewardStatus `json:"status,omitempty"`
	AwardedAt time.Time    `json:"awarded_at"`
	ExpiresAt *time.Time   `json:"expires_at,omitempty"`
}

type Recommendation struct {
	ID          int64   `json:"id"`
	CourseID    int64   `json:"course_id"`
	ExerciseID  *int64  `json:"exercise_id,omitempty"`
	CourseTitle string  `json:"course_title"`
	Difficulty  string  `json:"difficulty_level"`
	Reason      string  `json:"reason"`
	Confidence  float64 `json:"confidence_score"`
}

func ClampConfidence(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
