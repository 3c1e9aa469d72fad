package api

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/sadopc/suivi/internal/auth"
	"github.com/sadopc/suivi/internal/export"
	"github.com/sadopc/suivi/internal/store"
	"github.com/sadopc/suivi/internal/timesheet"
)

type userView struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Position  string    `json:"position"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

func viewUser(u *store.User) userView {
	return userView{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Position:  u.Position,
		Role:      string(u.Role),
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}

func viewUsers(users []store.User) []userView {
	out := make([]userView, len(users))
	for i := range users {
		out[i] = viewUser(&users[i])
	}
	return out
}

func badRequest(msg string) error {
	return fiber.NewError(fiber.StatusBadRequest, msg)
}

// ============================================================
// Auth
// ============================================================

type sessionResponse struct {
	Token string   `json:"token"`
	User  userView `json:"user"`
	Home  string   `json:"home"`
}

func (s *Server) session(c *fiber.Ctx, status int, u *store.User) error {
	tok, err := s.auth.IssueToken(u)
	if err != nil {
		return err
	}
	return c.Status(status).JSON(sessionResponse{Token: tok, User: viewUser(u), Home: auth.Home(u)})
}

func (s *Server) register(c *fiber.Ctx) error {
	var in auth.RegisterInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest("invalid request body")
	}
	u, err := s.auth.Register(in)
	if err != nil {
		return err
	}
	return s.session(c, fiber.StatusCreated, u)
}

func (s *Server) login(c *fiber.Ctx) error {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&in); err != nil {
		return badRequest("invalid request body")
	}
	u, err := s.auth.SignIn(in.Email, in.Password)
	if err != nil {
		return err
	}
	return s.session(c, fiber.StatusOK, u)
}

func (s *Server) requestPasswordReset(c *fiber.Ctx) error {
	var in struct {
		Email string `json:"email"`
	}
	if err := c.BodyParser(&in); err != nil {
		return badRequest("invalid request body")
	}
	if _, err := s.auth.RequestPasswordReset(in.Email); err != nil {
		return err
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "accepted"})
}

func (s *Server) confirmPasswordReset(c *fiber.Ctx) error {
	var in struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&in); err != nil {
		return badRequest("invalid request body")
	}
	if err := s.auth.ResetPassword(in.Token, in.Password); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) me(c *fiber.Ctx) error {
	u := currentUser(c)
	return c.JSON(fiber.Map{"user": viewUser(u), "home": auth.Home(u)})
}

func (s *Server) catalog(c *fiber.Ctx) error {
	return c.JSON(s.weeks.Catalog())
}

// ============================================================
// Weeks and months
// ============================================================

type weekResponse struct {
	Year       int                           `json:"year"`
	Week       int                           `json:"week"`
	Label      string                        `json:"label"`
	Monday     string                        `json:"monday"`
	Sunday     string                        `json:"sunday"`
	Days       map[string]store.DayRecord    `json:"days"`
	Rows       []timesheet.AllocationRow     `json:"rows"`
	Telework   []timesheet.Weekday           `json:"telework"`
	Restaurant []timesheet.Weekday           `json:"restaurant"`
	Totals     map[timesheet.Weekday]float64 `json:"totals"`
}

func weekdays(set [7]bool) []timesheet.Weekday {
	out := []timesheet.Weekday{}
	for _, d := range timesheet.Weekdays {
		if set[d] {
			out = append(out, d)
		}
	}
	return out
}

func viewWeek(d timesheet.SessionDraft) weekResponse {
	days := make(map[string]store.DayRecord, 7)
	for _, dv := range d.View().Days {
		days[dv.Key] = dv.Record
	}
	totals := make(map[timesheet.Weekday]float64, 7)
	for i, v := range d.Totals() {
		totals[timesheet.Weekday(i)] = v
	}
	rows := d.Rows()
	if rows == nil {
		rows = []timesheet.AllocationRow{}
	}
	return weekResponse{
		Year:       d.Week.Year,
		Week:       d.Week.Week,
		Label:      d.Week.Label(),
		Monday:     d.Week.Monday.Format(timesheet.DateLayout),
		Sunday:     d.Week.Sunday.Format(timesheet.DateLayout),
		Days:       days,
		Rows:       rows,
		Telework:   weekdays(d.Telework),
		Restaurant: weekdays(d.Restaurant),
		Totals:     totals,
	}
}

func parseDateParam(c *fiber.Ctx) (time.Time, error) {
	t, err := time.ParseInLocation(timesheet.DateLayout, c.Params("date"), time.Local)
	if err != nil {
		return time.Time{}, badRequest(fmt.Sprintf("invalid date %q, want YYYY-MM-DD", c.Params("date")))
	}
	return t, nil
}

// getWeek returns the stored week in edit form: rows rebuilt from the
// stored days, with their flags.
func (s *Server) getWeek(c *fiber.Ctx) error {
	anchor, err := parseDateParam(c)
	if err != nil {
		return err
	}
	d, err := s.weeks.LoadWeek(currentUser(c).ID, anchor)
	if err != nil {
		return err
	}
	return c.JSON(viewWeek(d.EnterEditMode(s.weeks.Catalog())))
}

type weekInput struct {
	Rows       []timesheet.AllocationRow `json:"rows"`
	Telework   []timesheet.Weekday       `json:"telework"`
	Restaurant []timesheet.Weekday       `json:"restaurant"`
}

func (s *Server) putWeek(c *fiber.Ctx) error {
	anchor, err := parseDateParam(c)
	if err != nil {
		return err
	}
	var in weekInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest("invalid request body")
	}

	uid := currentUser(c).ID
	d, err := s.weeks.LoadWeek(uid, anchor)
	if err != nil {
		return err
	}
	d = d.WithRows(in.Rows)
	d.Telework, d.Restaurant = [7]bool{}, [7]bool{}
	for _, wd := range in.Telework {
		d.Telework[wd] = true
	}
	for _, wd := range in.Restaurant {
		d.Restaurant[wd] = true
	}

	saved, err := s.weeks.SubmitWeek(uid, d)
	if err != nil {
		return err
	}
	return c.JSON(viewWeek(saved.EnterEditMode(s.weeks.Catalog())))
}

func (s *Server) getMonth(c *fiber.Ctx) error {
	year, err := strconv.Atoi(c.Params("year"))
	if err != nil || year < 1 {
		return badRequest("invalid year")
	}
	month, err := strconv.Atoi(c.Params("month"))
	if err != nil || month < 1 || month > 12 {
		return badRequest("invalid month")
	}
	rec, err := s.weeks.LoadMonth(currentUser(c).ID, year, time.Month(month))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"year":    year,
		"month":   month,
		"days":    rec,
		"summary": timesheet.Summarize(rec),
	})
}

// ============================================================
// Admin
// ============================================================

func (s *Server) listUsers(c *fiber.Ctx) error {
	users, err := s.store.ListUsers()
	if err != nil {
		return err
	}
	return c.JSON(viewUsers(users))
}

func (s *Server) listEmployees(c *fiber.Ctx) error {
	users, err := s.store.ListEmployees()
	if err != nil {
		return err
	}
	return c.JSON(viewUsers(users))
}

func (s *Server) setUserStatus(c *fiber.Ctx) error {
	var in struct {
		IsActive *bool `json:"isActive"`
	}
	if err := c.BodyParser(&in); err != nil || in.IsActive == nil {
		return badRequest("isActive is required")
	}
	id := c.Params("id")
	if id == currentUser(c).ID && !*in.IsActive {
		return badRequest("cannot disable your own account")
	}
	if err := s.store.SetUserActive(id, *in.IsActive); err != nil {
		return err
	}
	return s.respondUser(c, id)
}

func (s *Server) setUserRole(c *fiber.Ctx) error {
	var in struct {
		Role store.Role `json:"role"`
	}
	if err := c.BodyParser(&in); err != nil {
		return badRequest("invalid request body")
	}
	if in.Role != store.RoleEmployee && in.Role != store.RoleAdmin {
		return badRequest(fmt.Sprintf("unknown role %q", in.Role))
	}
	if c.Params("id") == currentUser(c).ID {
		return badRequest("cannot change your own role")
	}
	if err := s.store.SetUserRole(c.Params("id"), in.Role); err != nil {
		return err
	}
	return s.respondUser(c, c.Params("id"))
}

func (s *Server) respondUser(c *fiber.Ctx, id string) error {
	u, err := s.store.GetUser(id)
	if err != nil {
		return err
	}
	return c.JSON(viewUser(u))
}

func (s *Server) exportRows() ([]export.Row, error) {
	users, err := s.store.ListUsers()
	if err != nil {
		return nil, err
	}
	docs, err := s.store.ListMonthDocuments()
	if err != nil {
		return nil, err
	}
	return export.BuildRows(users, docs), nil
}

func (s *Server) exportCSV(c *fiber.Ctx) error {
	return s.sendExport(c, "csv", "text/csv; charset=utf-8", export.WriteCSV)
}

func (s *Server) exportXLSX(c *fiber.Ctx) error {
	return s.sendExport(c, "xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", export.WriteXLSX)
}

func (s *Server) sendExport(c *fiber.Ctx, ext, contentType string, write func(io.Writer, []export.Row) error) error {
	rows, err := s.exportRows()
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := write(&buf, rows); err != nil {
		return err
	}
	c.Attachment(export.Filename(s.now(), ext))
	c.Set(fiber.HeaderContentType, contentType)
	return c.Send(buf.Bytes())
}
