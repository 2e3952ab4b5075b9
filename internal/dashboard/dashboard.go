// Package dashboard builds the sample data shown on the dashboard page.
package dashboard

import userdomain "webstarter/backend/internal/user/domain"

// StatCard is one summary tile.
type StatCard struct {
	Title       string `json:"title"`
	Value       string `json:"value"`
	Description string `json:"description"`
}

// GrowthPoint is one month of user registrations.
type GrowthPoint struct {
	Month string `json:"month"`
	Users int    `json:"users"`
}

// ActivityPoint is one day of active sessions.
type ActivityPoint struct {
	Day      string `json:"day"`
	Sessions int    `json:"sessions"`
}

// Overview is the dashboard payload.
type Overview struct {
	Stats    []StatCard      `json:"stats"`
	Growth   []GrowthPoint   `json:"userGrowth"`
	Activity []ActivityPoint `json:"weeklyActivity"`
}

// NewOverview returns fresh slices on every call; only the Email Verified card depends on the user.
func NewOverview(user *userdomain.User) *Overview {
	verified := "No"
	if user != nil && user.EmailVerified {
		verified = "Yes"
	}
	return &Overview{
		Stats: []StatCard{
			{Title: "Total Revenue", Value: "$45,231", Description: "+20% from last month"},
			{Title: "Active Users", Value: "2,350", Description: "+180 this week"},
			{Title: "Conversion Rate", Value: "12.5%", Description: "+2.1% from last month"},
			{Title: "Email Verified", Value: verified, Description: "Your account status"},
		},
		Growth: []GrowthPoint{
			{"Jan", 120}, {"Feb", 145}, {"Mar", 178}, {"Apr", 210}, {"May", 248}, {"Jun", 289},
		},
		Activity: []ActivityPoint{
			{"Mon", 45}, {"Tue", 52}, {"Wed", 48}, {"Thu", 61}, {"Fri", 55}, {"Sat", 38}, {"Sun", 42},
		},
	}
}

// MaxUsers is the largest value in the growth series, used to scale bar charts.
func (o *Overview) MaxUsers() int {
	m := 0
	for _, p := range o.Growth {
		if p.Users > m {
			m = p.Users
		}
	}
	return m
}

// MaxSessions is the largest value in the activity series.
func (o *Overview) MaxSessions() int {
	m := 0
	for _, p := range o.Activity {
		if p.Sessions > m {
			m = p.Sessions
		}
	}
	return m
}
