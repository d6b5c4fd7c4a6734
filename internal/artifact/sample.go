package artifact

// SampleTable is the fixed fallback payload served when no prediction
// artifact exists yet, so callers always get a well-formed response.
func SampleTable() *Table {
	return &Table{
		Gameweek:    2,
		FileName:    "sample_data.csv",
		LastUpdated: "Unknown",
		Records: []Record{
			{
				Name: "Erling Haaland", Team: "Man City", Position: "FWD",
				Fixture: "Man City (H) vs Ipswich", PredictedPoints: 89.5,
				NowCost: 15.0, PointsPerGame: 8.95, Form: 9.0, ExpectedGoals: 1.2,
				Minutes: 90, Assists: 1, GoalsScored: 2, TotalPoints: 17,
				OpponentDifficulty: 2, IsHome: true, ChanceThisRound: 100,
			},
			{
				Name: "Mohamed Salah", Team: "Liverpool", Position: "FWD",
				Fixture: "Liverpool (A) vs Brentford", PredictedPoints: 82.3,
				NowCost: 12.5, PointsPerGame: 7.8, Form: 8.5, ExpectedGoals: 1.0,
				Minutes: 90, Assists: 2, GoalsScored: 1, TotalPoints: 13,
				OpponentDifficulty: 3, IsHome: false, ChanceThisRound: 100,
			},
			{
				Name: "Cole Palmer", Team: "Chelsea", Position: "MID",
				Fixture: "Chelsea (A) vs Wolves", PredictedPoints: 78.9,
				NowCost: 10.5, PointsPerGame: 7.2, Form: 8.0, ExpectedGoals: 0.8,
				Minutes: 85, Assists: 1, GoalsScored: 1, TotalPoints: 11,
				OpponentDifficulty: 3, IsHome: false, ChanceThisRound: 100,
			},
			{
				Name: "Bukayo Saka", Team: "Arsenal", Position: "MID",
				Fixture: "Arsenal (H) vs Aston Villa", PredictedPoints: 76.2,
				NowCost: 10.0, PointsPerGame: 6.8, Form: 7.5, ExpectedGoals: 0.6,
				Minutes: 88, Assists: 1, TotalPoints: 9,
				OpponentDifficulty: 4, IsHome: true, ChanceThisRound: 100,
			},
			{
				Name: "Virgil van Dijk", Team: "Liverpool", Position: "DEF",
				Fixture: "Liverpool (A) vs Brentford", PredictedPoints: 65.4,
				NowCost: 6.0, PointsPerGame: 5.8, Form: 6.5, ExpectedGoals: 0.2,
				Minutes: 90, TotalPoints: 8, CleanSheets: 1,
				OpponentDifficulty: 3, IsHome: false, ChanceThisRound: 100,
			},
			{
				Name: "Alisson", Team: "Liverpool", Position: "GKP",
				Fixture: "Liverpool (A) vs Brentford", PredictedPoints: 52.1,
				NowCost: 5.5, PointsPerGame: 4.2, Form: 5.0,
				Minutes: 90, SavesPer90: 3.2, TotalPoints: 6, CleanSheets: 1,
				OpponentDifficulty: 3, IsHome: false, ChanceThisRound: 100,
			},
		},
	}
}
