package engine

import "math"

func scenarioA() *Store {
	return NewStore([]Record{
		{Term: "Fall", Year: 2020, Applications: 100, Admitted: 80, Enrolled: 60, RetentionRate: math.NaN(), SatisfactionScore: math.NaN()},
		{Term: "Spring", Year: 2020, Applications: 50, Admitted: 40, Enrolled: 30, RetentionRate: math.NaN(), SatisfactionScore: math.NaN()},
	}, Facts{})
}

// wideStore has no department column and four wide enrollment columns.
func wideStore() *Store {
	rec := func(term string, year, apps, adm, enr int, ret, sat float64, eng, bus, arts, sci int) Record {
		return Record{
			Term: term, Year: year,
			Applications: apps, Admitted: adm, Enrolled: enr,
			RetentionRate: ret, SatisfactionScore: sat,
			DeptEnrolled: map[string]int{"Engineering": eng, "Business": bus, "Arts": arts, "Science": sci},
		}
	}
	return NewStore([]Record{
		rec("Spring", 2019, 1000, 400, 200, 90, 80, 50, 50, 50, 50),
		rec("Fall", 2019, 1200, 500, 300, 88, 82, 90, 70, 60, 80),
		rec("Spring", 2020, 1100, 450, 250, 91, math.NaN(), 70, 60, 60, 60),
		rec("Fall", 2020, 1300, 550, 320, math.NaN(), math.NaN(), 100, 80, 60, 80),
		rec("Fall", 2021, 1400, 600, 350, 85, 78, 110, 90, 70, 80),
	}, Facts{Departments: []string{"Engineering", "Business", "Arts", "Science"}})
}

// longStore has a department column.
func longStore() *Store {
	return NewStore([]Record{
		{Term: "Fall", Year: 2020, Department: "Arts", Applications: 10, Admitted: 5, Enrolled: 4, RetentionRate: 80, SatisfactionScore: 70},
		{Term: "Fall", Year: 2020, Department: "Science", Applications: 20, Admitted: 10, Enrolled: 8, RetentionRate: 90, SatisfactionScore: math.NaN()},
		{Term: "Spring", Year: 2021, Department: "arts", Applications: 30, Admitted: 15, Enrolled: 12, RetentionRate: 70, SatisfactionScore: 60},
	}, Facts{HasDepartment: true})
}
