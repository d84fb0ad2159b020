package testkit

import (
	"math"

	"gofacto/domain/table"
)

// HairEye is the hair colour × eye colour contingency table of 592
// students (Snee, 1974). Published CA: χ² = 138.29 on 9 dof, principal
// inertias 0.2088, 0.0222, 0.0026.
func HairEye() *table.Table {
	return mustTable([]string{"Black", "Brown", "Red", "Blond"},
		table.Frequency("Brown", []float64{68, 119, 26, 7}),
		table.Frequency("Blue", []float64{20, 84, 17, 94}),
		table.Frequency("Hazel", []float64{15, 54, 14, 10}),
		table.Frequency("Green", []float64{5, 29, 14, 16}),
	)
}

// UniformCounts is a 4×3 table with identical cells: rows and columns are
// independent so there is no inertia to decompose
func UniformCounts() *table.Table {
	cells := []float64{10, 10, 10, 10}
	return mustTable(nil,
		table.Frequency("a", cells),
		table.Frequency("b", cells),
		table.Frequency("c", cells),
	)
}

// Athletes is a small continuous table: four events, a supplementary
// score, a supplementary competition label and two rows meant to be
// supplementary (the last two)
func Athletes() *table.Table {
	return mustTable(
		[]string{"Sebrle", "Clay", "Karpov", "Macey", "Warners", "Zsivoczky", "Hernu", "Nool", "Bernard", "Schwarzl", "Pogorelov", "Barras"},
		table.Continuous("100m", []float64{10.85, 10.44, 10.50, 10.89, 10.62, 10.91, 10.97, 10.80, 10.69, 10.98, 10.95, 11.08}),
		table.Continuous("long_jump", []float64{7.84, 7.96, 7.81, 7.47, 7.74, 7.14, 7.19, 7.53, 7.48, 7.49, 7.31, 7.00}),
		table.Continuous("shot_put", []float64{16.36, 15.23, 15.93, 15.73, 14.48, 15.31, 14.65, 14.26, 14.80, 14.01, 15.10, 14.35}),
		table.Continuous("high_jump", []float64{2.12, 2.06, 2.09, 2.15, 1.97, 2.12, 2.03, 1.88, 2.12, 1.94, 2.06, 2.03}),
		table.Continuous("points", []float64{8893, 8820, 8725, 8414, 8343, 8287, 8237, 8235, 8225, 8102, 8084, 8067}),
		table.Categorical("competition", []string{"OG", "OG", "OG", "OG", "OG", "OG", "Decastar", "Decastar", "Decastar", "Decastar", "Decastar", "Decastar"}),
	)
}

// Survey is a categorical questionnaire with a supplementary continuous age
func Survey() *table.Table {
	return mustTable(nil,
		table.Categorical("diet", []string{"veg", "veg", "meat", "meat", "fish", "veg", "meat", "fish", "fish", "meat", "veg", "meat"}),
		table.Categorical("sport", []string{"often", "often", "rarely", "never", "often", "often", "never", "rarely", "often", "rarely", "rarely", "never"}),
		table.Categorical("smoker", []string{"no", "no", "yes", "yes", "no", "no", "yes", "no", "no", "yes", "no", "yes"}),
		table.Continuous("age", []float64{23, 31, 45, 52, 29, 35, 61, 40, 27, 48, 33, 57}),
	)
}

// Mixed combines continuous and categorical columns for FAMD: two
// continuous, two categorical, then a supplementary continuous and a
// supplementary categorical column
func Mixed() *table.Table {
	return mustTable(nil,
		table.Continuous("income", []float64{32, 45, 28, 60, 52, 38, 71, 25, 48, 55}),
		table.Continuous("age", []float64{25, 41, 23, 50, 47, 33, 58, 21, 39, 44}),
		table.Categorical("region", []string{"north", "south", "north", "east", "south", "north", "east", "north", "south", "east"}),
		table.Categorical("owner", []string{"no", "yes", "no", "yes", "yes", "no", "yes", "no", "no", "yes"}),
		table.Continuous("savings", []float64{3, 9, 1, 20, 14, 5, 30, 2, 8, 12}),
		table.Categorical("gender", []string{"f", "m", "m", "f", "f", "m", "m", "f", "m", "f"}),
	)
}

// Wines is a multi-table layout: an olfactory group (3 continuous), a
// visual group (2 continuous) and a categorical origin group meant to be
// supplementary
func Wines() *table.Table {
	return mustTable(
		[]string{"W1", "W2", "W3", "W4", "W5", "W6", "W7", "W8", "W9", "W10"},
		table.Continuous("fruity", []float64{2.9, 3.4, 2.1, 3.8, 2.6, 3.1, 1.9, 3.6, 2.4, 3.0}),
		table.Continuous("floral", []float64{2.1, 2.8, 1.5, 3.0, 2.2, 2.5, 1.7, 3.2, 1.9, 2.6}),
		table.Continuous("spicy", []float64{1.8, 1.2, 2.5, 1.0, 2.0, 1.6, 2.7, 1.1, 2.2, 1.5}),
		table.Continuous("colour", []float64{4.1, 3.2, 4.6, 3.0, 4.0, 3.6, 4.8, 3.1, 4.4, 3.5}),
		table.Continuous("clarity", []float64{3.3, 3.9, 2.8, 4.2, 3.0, 3.7, 2.6, 4.0, 3.1, 3.8}),
		table.Categorical("origin", []string{"Saumur", "Bourgueil", "Saumur", "Chinon", "Saumur", "Bourgueil", "Saumur", "Chinon", "Bourgueil", "Chinon"}),
	)
}

// Constant is a continuous table where every column is constant
func Constant() *table.Table {
	return mustTable(nil,
		table.Continuous("x", []float64{1, 1, 1, 1}),
		table.Continuous("y", []float64{2, 2, 2, 2}),
	)
}

// WithMissing is Athletes' four events with a few missing cells, two of them
// on the last (supplementary) row
func WithMissing() *table.Table {
	tbl := Athletes()
	cols := make([]table.Column, 4)
	for j := range cols {
		values := append([]float64(nil), tbl.Columns[j].Values...)
		cols[j] = table.Continuous(tbl.Columns[j].Name, values)
	}
	cols[0].Values[2] = math.NaN()
	cols[3].Values[11] = math.NaN()
	cols[1].Values[11] = math.NaN()
	return mustTable(tbl.RowNames, cols...)
}

func mustTable(rows []string, cols ...table.Column) *table.Table {
	tbl, err := table.New(rows, cols...)
	if err != nil {
		panic(err)
	}
	return tbl
}
