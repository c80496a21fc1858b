package mysql_test

import (
    "context"
    "errors"
    "testing"
    "time"

    "github.com/DATA-DOG/go-sqlmock"
    "github.com/rs/zerolog"

    "github.com/digivite/digivite/internal/repository/mysql"
    "github.com/digivite/digivite/internal/service"
)

var (
    guestColumns = []string{"id", "event_id", "full_name", "email", "phone", "status", "number_of_guests",
        "qr_code_token", "slug", "checked_in", "check_in_time", "table_id", "gift_sent", "rsvp_at",
        "created_at", "updated_at"}
    tableColumns = []string{"id", "event_id", "number", "capacity", "created_at"}
    eventColumns = []string{"id", "slug", "title", "date", "venue", "admin_id", "created_at"}

    created = time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
)

const (
    lockGuestSQL = `SELECT .+ FROM guests WHERE id = \? FOR UPDATE$`
    lockTableSQL = `SELECT .+ FROM seating_tables WHERE id = \? FOR UPDATE$`
    getEventSQL  = `SELECT .+ FROM events WHERE id = \?$`
    seatsUsedSQL = `SELECT COALESCE\(SUM\(number_of_guests\), 0\) FROM guests WHERE table_id = \?$`
    seatSQL      = `UPDATE guests SET table_id = \?, checked_in = COALESCE\(\?, checked_in\), .+ WHERE id = \?$`
    getGuestSQL  = `SELECT .+ FROM guests WHERE id = \?$`
)

func newMock(t *testing.T) (*mysql.Store, sqlmock.Sqlmock) {
    t.Helper()
    db, mock, err := sqlmock.New()
    if err != nil {
        t.Fatalf("sqlmock: %v", err)
    }
    t.Cleanup(func() { _ = db.Close() })
    return mysql.New(db), mock
}

func guestRows(tableID any, party int64) *sqlmock.Rows {
    return sqlmock.NewRows(guestColumns).AddRow(
        "g1", "ev1", "Jane Doe", "jane@x.com", nil, "ACCEPTED", party,
        "q_0123456789abcdef0123456789abcdef", "jane-doe", false, nil, tableID, false, created,
        created, created)
}

func expectLocks(mock sqlmock.Sqlmock, party int64, capacity int64) {
    mock.ExpectBegin()
    mock.ExpectQuery(lockGuestSQL).WithArgs("g1").WillReturnRows(guestRows(nil, party))
    mock.ExpectQuery(lockTableSQL).WithArgs("t1").
        WillReturnRows(sqlmock.NewRows(tableColumns).AddRow("t1", "ev1", 3, capacity, created))
    mock.ExpectQuery(getEventSQL).WithArgs("ev1").
        WillReturnRows(sqlmock.NewRows(eventColumns).AddRow("ev1", "jane-john", "Jane & John", created, nil, "admin-1", created))
}

func TestAssignSeatsUnderRowLocks(t *testing.T) {
    store, mock := newMock(t)
    tables := service.NewTableService(store)

    expectLocks(mock, 2, 8)
    mock.ExpectQuery(seatsUsedSQL).WithArgs("t1").WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(6))
    mock.ExpectExec(seatSQL).
        WithArgs("t1", nil, "ACCEPTED", nil, sqlmock.AnyArg(), "g1").
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectQuery(seatsUsedSQL).WithArgs("t1").WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(8))
    mock.ExpectQuery(getGuestSQL).WithArgs("g1").WillReturnRows(guestRows("t1", 2))
    mock.ExpectCommit()

    res, err := tables.Assign(context.Background(), "admin-1", service.AssignInput{GuestID: "g1", TableID: "t1"})
    if err != nil {
        t.Fatalf("Assign: %v", err)
    }
    if res.Table.SeatsUsed != 8 || res.Table.Capacity != 8 || res.Guest.TableID == nil || *res.Guest.TableID != "t1" {
        t.Fatalf("unexpected result %+v", res)
    }
    if err := mock.ExpectationsWereMet(); err != nil {
        t.Fatal(err)
    }
}

func TestAssignOverCapacityRollsBack(t *testing.T) {
    store, mock := newMock(t)
    tables := service.NewTableService(store)

    expectLocks(mock, 3, 8)
    mock.ExpectQuery(seatsUsedSQL).WithArgs("t1").WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(6))
    mock.ExpectRollback()

    _, err := tables.Assign(context.Background(), "admin-1", service.AssignInput{GuestID: "g1", TableID: "t1"})
    var capErr *service.CapacityError
    if !errors.As(err, &capErr) || capErr.TableNumber != 3 {
        t.Fatalf("want capacity error, got %v", err)
    }
    if err := mock.ExpectationsWereMet(); err != nil {
        t.Fatal(err)
    }
}

func TestRecordRSVPIsConditional(t *testing.T) {
    store, mock := newMock(t)
    const update = `UPDATE guests SET email = \?, .+ WHERE id = \? AND rsvp_at IS NULL AND \(qr_code_token LIKE \? OR qr_code_token = ''\)$`
    at := time.Date(2026, 5, 2, 9, 0, 0, 0, time.UTC)
    u := service.RSVPUpdate{Email: "jane@x.com", NumberOfGuests: 2, Token: "q_abc", At: at}

    mock.ExpectExec(update).
        WithArgs("jane@x.com", nil, 2, "ACCEPTED", "q_abc", at, at, "g1", `pending\_%`).
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectExec(update).
        WithArgs("jane@x.com", nil, 2, "ACCEPTED", "q_abc", at, at, "g1", `pending\_%`).
        WillReturnResult(sqlmock.NewResult(0, 0))

    ctx := context.Background()
    if ok, err := store.RecordRSVP(ctx, "g1", u); err != nil || !ok {
        t.Fatalf("first RecordRSVP = %v, %v", ok, err)
    }
    if ok, err := store.RecordRSVP(ctx, "g1", u); err != nil || ok {
        t.Fatalf("second RecordRSVP = %v, %v; the row must only change once", ok, err)
    }
    if err := mock.ExpectationsWereMet(); err != nil {
        t.Fatal(err)
    }
}

func TestRSVPOverMySQLIssuesTokenOnce(t *testing.T) {
    store, mock := newMock(t)
    rsvp := service.NewRSVPService(store, nil, zerolog.Nop())

    pending := sqlmock.NewRows(guestColumns).AddRow(
        "g1", "ev1", "Jane Doe", nil, nil, "PENDING", 1,
        "pending_abcdefghijkl", "jane-doe", false, nil, nil, false, nil,
        created, created)
    mock.ExpectQuery(`SELECT .+ FROM guests WHERE slug = \?$`).WithArgs("jane-doe").WillReturnRows(pending)
    // another request won the conditional update
    mock.ExpectExec(`UPDATE guests SET email = \?`).WillReturnResult(sqlmock.NewResult(0, 0))
    mock.ExpectQuery(getGuestSQL).WithArgs("g1").WillReturnRows(guestRows(nil, 1))

    res, err := rsvp.RSVP(context.Background(), service.RSVPInput{Slug: "jane-doe", Email: "late@x.com"})
    if err != nil {
        t.Fatalf("RSVP: %v", err)
    }
    if !res.Already || res.Guest.QRCodeToken != "q_0123456789abcdef0123456789abcdef" {
        t.Fatalf("losing request must return the winner's token, got %+v", res.Guest)
    }
    if err := mock.ExpectationsWereMet(); err != nil {
        t.Fatal(err)
    }
}
