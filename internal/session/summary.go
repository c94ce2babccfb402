package session

import "github.com/franckalain/foodlens/internal/models"

// DailyGoalCalories is the calorie target shown on the home screen
const DailyGoalCalories = 2000

// Summary totals the session's meals against the daily goal
type Summary struct {
	Calories     int     `json:"calories"`
	Protein      int     `json:"protein"`
	Carbs        int     `json:"carbs"`
	Fat          int     `json:"fat"`
	GoalCalories int     `json:"goal_calories"`
	Progress     float64 `json:"progress"` // percent of goal, capped at 100
	MealCount    int     `json:"meal_count"`
}

// Summarize totals a list of meals
func Summarize(meals []models.MealEntity) Summary {
	sum := Summary{GoalCalories: DailyGoalCalories, MealCount: len(meals)}
	for _, m := range meals {
		sum.Calories += m.Calories
		sum.Protein += m.Protein
		sum.Carbs += m.Carbs
		sum.Fat += m.Fat
	}

	sum.Progress = float64(sum.Calories) / float64(sum.GoalCalories) * 100
	if sum.Progress > 100 {
		sum.Progress = 100
	}
	return sum
}

// Summary totals the saved meals
func (s *Session) Summary() Summary {
	return Summarize(s.meals)
}
