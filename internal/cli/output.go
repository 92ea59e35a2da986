package cli

import (
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/oksasatya/go-social-graph/internal/application"
	"github.com/oksasatya/go-social-graph/internal/domain/entity"
)

// renderTable prints a pretty table to out
func renderTable(out io.Writer, headers []string, rows [][]interface{}) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)

	headerRow := table.Row{}
	for _, h := range headers {
		headerRow = append(headerRow, h)
	}
	t.AppendHeader(headerRow)

	for _, row := range rows {
		t.AppendRow(table.Row(row))
	}
	if len(rows) == 0 {
		t.SetCaption("(none)")
	}
	t.Render()
}

func renderUsers(out io.Writer, users []*entity.User) {
	rows := make([][]interface{}, 0, len(users))
	for _, u := range users {
		rows = append(rows, []interface{}{u.Username, u.Name, u.Bio})
	}
	renderTable(out, []string{"Username", "Name", "Bio"}, rows)
}

func renderProfile(out io.Writer, u *entity.User) {
	renderTable(out, []string{"Field", "Value"}, [][]interface{}{
		{"username", u.Username},
		{"name", u.Name},
		{"email", u.Email},
		{"bio", u.Bio},
		{"created", u.CreatedAt.Format("2006-01-02 15:04:05")},
		{"updated", u.UpdatedAt.Format("2006-01-02 15:04:05")},
	})
}

func renderRanked(out io.Writer, ranked []application.RankedUser) {
	rows := make([][]interface{}, 0, len(ranked))
	for i, r := range ranked {
		rows = append(rows, []interface{}{strconv.Itoa(i + 1), r.User.Username, r.User.Name, r.FollowerCount})
	}
	renderTable(out, []string{"#", "Username", "Name", "Followers"}, rows)
}

func renderRecommendations(out io.Writer, recs []application.Recommendation) {
	rows := make([][]interface{}, 0, len(recs))
	for i, r := range recs {
		rows = append(rows, []interface{}{strconv.Itoa(i + 1), r.User.Username, r.User.Name, r.Score})
	}
	renderTable(out, []string{"#", "Username", "Name", "Score"}, rows)
}
