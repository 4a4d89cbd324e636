package store

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cura-ai/scheduling-assistant/pkg/logging"
)

const (
	patientsFile = "patients.csv"
	scheduleFile = "doctor_schedule.csv"
	bookingsFile = "bookings.csv"
)

var patientHeader = []string{
	"patient_id", "name", "dob", "phone", "email", "location",
	"insurance_carrier", "member_id", "group_number", "created_at",
}

var slotHeader = []string{
	"slot_id", "doctor", "date", "start_time", "end_time", "status",
}

var bookingBaseHeader = []string{
	"booking_id", "patient_id", "patient_name", "doctor", "date", "time_slot",
	"slot_ids", "email", "phone", "status", "created_at",
}

var reminderColRe = regexp.MustCompile(`^reminder_(\d+)d_sent$`)

// CSVStore persists all records to CSV files under a single data directory.
// Every mutation rewrites the backing file before returning, so nothing
// survives only in memory. A mutex serializes writers within the process;
// cross-process coordination is out of scope (single-clinic, single active
// writer by convention).
type CSVStore struct {
	dir     string
	offsets []int
	logger  *logging.Logger

	mu sync.Mutex
}

// NewCSVStore creates a CSV-backed store rooted at dir, creating the
// directory if needed. reminderOffsets controls which reminder flag columns
// bookings.csv carries; columns already present in the file are preserved
// even if no longer configured.
func NewCSVStore(dir string, reminderOffsets []int, logger *logging.Logger) (*CSVStore, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("store: create data dir: %w", err)
	}
	return &CSVStore{
		dir:     dir,
		offsets: append([]int(nil), reminderOffsets...),
		logger:  logger,
	}, nil
}

var _ Store = (*CSVStore)(nil)

// --- patients ---

// FindPatient matches exactly against canonical values: name+DOB when both
// are present, otherwise phone. First match wins.
func (s *CSVStore) FindPatient(c Criteria) (*Patient, error) {
	patients, err := s.ListPatients()
	if err != nil {
		return nil, err
	}
	for i := range patients {
		p := &patients[i]
		if c.Name != "" && c.DOB != "" {
			if strings.EqualFold(strings.TrimSpace(p.Name), strings.TrimSpace(c.Name)) && p.DOB == c.DOB {
				return p, nil
			}
			continue
		}
		if c.Phone != "" && p.Phone == c.Phone {
			return p, nil
		}
	}
	return nil, ErrNotFound
}

// ListPatients returns all patient rows. A missing file reads as empty.
func (s *CSVStore) ListPatients() ([]Patient, error) {
	rows, err := s.readRows(patientsFile)
	if err != nil {
		return nil, fmt.Errorf("store: read patients: %w", err)
	}
	patients := make([]Patient, 0, len(rows))
	for _, row := range rows {
		if len(row) < len(patientHeader) {
			continue
		}
		created, _ := time.Parse(time.RFC3339, row[9])
		patients = append(patients, Patient{
			ID:               row[0],
			Name:             row[1],
			DOB:              row[2],
			Phone:            row[3],
			Email:            row[4],
			Location:         row[5],
			InsuranceCarrier: row[6],
			MemberID:         row[7],
			GroupNumber:      row[8],
			CreatedAt:        created,
		})
	}
	return patients, nil
}

// UpsertPatient updates the row matching p.ID (or name+DOB when the ID is
// empty) and appends a new row when no match exists. Empty incoming fields
// keep their stored values on update.
func (s *CSVStore) UpsertPatient(p Patient) (*Patient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	patients, err := s.ListPatients()
	if err != nil {
		return nil, err
	}

	idx := -1
	for i := range patients {
		if p.ID != "" && patients[i].ID == p.ID {
			idx = i
			break
		}
		if p.ID == "" && strings.EqualFold(patients[i].Name, p.Name) && patients[i].DOB == p.DOB {
			idx = i
			break
		}
	}

	if idx >= 0 {
		merged := mergePatient(patients[idx], p)
		patients[idx] = merged
		if err := s.writePatients(patients); err != nil {
			return nil, err
		}
		return &merged, nil
	}

	p.ID = uuid.New().String()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	patients = append(patients, p)
	if err := s.writePatients(patients); err != nil {
		return nil, err
	}
	s.logger.Info("store: patient created", "patient_id", p.ID, "name", p.Name)
	return &p, nil
}

// RemovePatient deletes a patient row. Only used to roll back a draft record
// staged during a conversation that ends in CANCEL; confirmed patients are
// never removed.
func (s *CSVStore) RemovePatient(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	patients, err := s.ListPatients()
	if err != nil {
		return err
	}
	kept := patients[:0]
	found := false
	for _, p := range patients {
		if p.ID == id {
			found = true
			continue
		}
		kept = append(kept, p)
	}
	if !found {
		return ErrNotFound
	}
	return s.writePatients(kept)
}

func mergePatient(existing, incoming Patient) Patient {
	merged := existing
	setIf := func(dst *string, v string) {
		if strings.TrimSpace(v) != "" {
			*dst = v
		}
	}
	setIf(&merged.Name, incoming.Name)
	setIf(&merged.DOB, incoming.DOB)
	setIf(&merged.Phone, incoming.Phone)
	setIf(&merged.Email, incoming.Email)
	setIf(&merged.Location, incoming.Location)
	setIf(&merged.InsuranceCarrier, incoming.InsuranceCarrier)
	setIf(&merged.MemberID, incoming.MemberID)
	setIf(&merged.GroupNumber, incoming.GroupNumber)
	return merged
}

func (s *CSVStore) writePatients(patients []Patient) error {
	rows := make([][]string, 0, len(patients))
	for _, p := range patients {
		rows = append(rows, []string{
			p.ID, p.Name, p.DOB, p.Phone, p.Email, p.Location,
			p.InsuranceCarrier, p.MemberID, p.GroupNumber,
			p.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	if err := s.writeRows(patientsFile, patientHeader, rows); err != nil {
		return fmt.Errorf("store: write patients: %w", err)
	}
	return nil
}

// --- doctor schedule ---

func (s *CSVStore) listAllSlots() ([]Slot, error) {
	rows, err := s.readRows(scheduleFile)
	if err != nil {
		return nil, fmt.Errorf("store: read schedule: %w", err)
	}
	slots := make([]Slot, 0, len(rows))
	for _, row := range rows {
		if len(row) < len(slotHeader) {
			continue
		}
		date, err := time.Parse(DateLayout, strings.TrimSpace(row[2]))
		if err != nil {
			s.logger.Warn("store: skipping schedule row with bad date", "slot_id", row[0], "date", row[2])
			continue
		}
		slots = append(slots, Slot{
			ID:       row[0],
			Doctor:   row[1],
			Date:     date,
			Start:    strings.TrimSpace(row[3]),
			End:      strings.TrimSpace(row[4]),
			BookedBy: parseSlotStatus(row[5]),
		})
	}
	return slots, nil
}

// ListSlots returns the doctor's slots for the given day in chronological
// order, booked ones included so callers can see the full picture.
func (s *CSVStore) ListSlots(doctor string, day time.Time) ([]Slot, error) {
	slots, err := s.listAllSlots()
	if err != nil {
		return nil, err
	}
	matched := make([]Slot, 0, 8)
	for _, slot := range slots {
		if strings.EqualFold(strings.TrimSpace(slot.Doctor), strings.TrimSpace(doctor)) && sameDay(slot.Date, day) {
			matched = append(matched, slot)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return slotMinutes(matched[i].Start) < slotMinutes(matched[j].Start)
	})
	return matched, nil
}

// ReserveSlot is a compare-and-set on the slot's status: it fails with
// ErrSlotConflict when another booking claimed the slot first.
func (s *CSVStore) ReserveSlot(slotID, patientName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	slots, err := s.listAllSlots()
	if err != nil {
		return err
	}
	for i := range slots {
		if slots[i].ID != slotID {
			continue
		}
		if !slots[i].Available() {
			return ErrSlotConflict
		}
		slots[i].BookedBy = patientName
		return s.writeSlots(slots)
	}
	return ErrNotFound
}

// ReleaseSlot marks a slot available again after a cancellation.
func (s *CSVStore) ReleaseSlot(slotID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	slots, err := s.listAllSlots()
	if err != nil {
		return err
	}
	for i := range slots {
		if slots[i].ID != slotID {
			continue
		}
		slots[i].BookedBy = ""
		return s.writeSlots(slots)
	}
	return ErrNotFound
}

// SaveSlots replaces the whole schedule. Staff normally maintain
// doctor_schedule.csv by hand; this exists for seeding demo and test data.
func (s *CSVStore) SaveSlots(slots []Slot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeSlots(slots)
}

func (s *CSVStore) writeSlots(slots []Slot) error {
	rows := make([][]string, 0, len(slots))
	for _, slot := range slots {
		status := "available"
		if slot.BookedBy != "" {
			status = "booked by " + slot.BookedBy
		}
		rows = append(rows, []string{
			slot.ID, slot.Doctor, slot.Date.Format(DateLayout),
			slot.Start, slot.End, status,
		})
	}
	if err := s.writeRows(scheduleFile, slotHeader, rows); err != nil {
		return fmt.Errorf("store: write schedule: %w", err)
	}
	return nil
}

func parseSlotStatus(cell string) string {
	cell = strings.TrimSpace(cell)
	if strings.EqualFold(cell, "available") || cell == "" {
		return ""
	}
	lower := strings.ToLower(cell)
	if rest, ok := strings.CutPrefix(lower, "booked by "); ok {
		return strings.TrimSpace(cell[len(cell)-len(rest):])
	}
	// Any other non-empty status counts as booked; keep the raw value.
	return cell
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func slotMinutes(start string) int {
	t, err := time.Parse("15:04", start)
	if err != nil {
		return 24 * 60
	}
	return t.Hour()*60 + t.Minute()
}

// --- bookings ---

// CreateBooking appends a booking row, assigning an ID and timestamp.
func (s *CSVStore) CreateBooking(b Booking) (*Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bookings, err := s.listBookings()
	if err != nil {
		return nil, err
	}
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	if b.Status == "" {
		b.Status = BookingPending
	}
	if b.RemindersSent == nil {
		b.RemindersSent = map[int]bool{}
	}
	bookings = append(bookings, b)
	if err := s.writeBookings(bookings); err != nil {
		return nil, err
	}
	s.logger.Info("store: booking created",
		"booking_id", b.ID, "doctor", b.Doctor, "date", b.Date.Format(DateLayout))
	return &b, nil
}

// GetBooking returns the booking with the given ID.
func (s *CSVStore) GetBooking(id string) (*Booking, error) {
	bookings, err := s.listBookings()
	if err != nil {
		return nil, err
	}
	for i := range bookings {
		if bookings[i].ID == id {
			return &bookings[i], nil
		}
	}
	return nil, ErrNotFound
}

// UpdateBookingStatus transitions a booking's status. Rows are never removed;
// cancellation is just a status change.
func (s *CSVStore) UpdateBookingStatus(id string, status BookingStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	bookings, err := s.listBookings()
	if err != nil {
		return err
	}
	for i := range bookings {
		if bookings[i].ID == id {
			bookings[i].Status = status
			return s.writeBookings(bookings)
		}
	}
	return ErrNotFound
}

// UpdateBookingContact fills in the email and phone collected after the
// booking row was written. Empty arguments leave the stored value alone.
func (s *CSVStore) UpdateBookingContact(id, email, phone string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	bookings, err := s.listBookings()
	if err != nil {
		return err
	}
	for i := range bookings {
		if bookings[i].ID == id {
			if email != "" {
				bookings[i].Email = email
			}
			if phone != "" {
				bookings[i].Phone = phone
			}
			return s.writeBookings(bookings)
		}
	}
	return ErrNotFound
}

// ListConfirmedBookings returns bookings eligible for reminders.
func (s *CSVStore) ListConfirmedBookings() ([]Booking, error) {
	bookings, err := s.listBookings()
	if err != nil {
		return nil, err
	}
	confirmed := make([]Booking, 0, len(bookings))
	for _, b := range bookings {
		if b.Status == BookingConfirmed {
			confirmed = append(confirmed, b)
		}
	}
	return confirmed, nil
}

// MarkReminderSent durably records that the reminder for the given offset
// went out. The flag is monotonic: there is no way to unset it.
func (s *CSVStore) MarkReminderSent(bookingID string, offsetDays int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	bookings, err := s.listBookings()
	if err != nil {
		return err
	}
	for i := range bookings {
		if bookings[i].ID == bookingID {
			if bookings[i].RemindersSent == nil {
				bookings[i].RemindersSent = map[int]bool{}
			}
			bookings[i].RemindersSent[offsetDays] = true
			return s.writeBookings(bookings)
		}
	}
	return ErrNotFound
}

func (s *CSVStore) listBookings() ([]Booking, error) {
	header, rows, err := s.readRowsWithHeader(bookingsFile)
	if err != nil {
		return nil, fmt.Errorf("store: read bookings: %w", err)
	}
	col := map[string]int{}
	for i, name := range header {
		col[strings.TrimSpace(strings.ToLower(name))] = i
	}
	cell := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	bookings := make([]Booking, 0, len(rows))
	for _, row := range rows {
		id := cell(row, "booking_id")
		if id == "" {
			continue
		}
		date, err := time.Parse(DateLayout, strings.TrimSpace(cell(row, "date")))
		if err != nil {
			s.logger.Warn("store: skipping booking row with bad date", "booking_id", id, "date", cell(row, "date"))
			continue
		}
		created, _ := time.Parse(time.RFC3339, cell(row, "created_at"))
		b := Booking{
			ID:            id,
			PatientID:     cell(row, "patient_id"),
			PatientName:   cell(row, "patient_name"),
			Doctor:        cell(row, "doctor"),
			Date:          date,
			TimeSlot:      cell(row, "time_slot"),
			SlotIDs:       splitSlotIDs(cell(row, "slot_ids")),
			Email:         cell(row, "email"),
			Phone:         cell(row, "phone"),
			Status:        BookingStatus(strings.ToLower(strings.TrimSpace(cell(row, "status")))),
			CreatedAt:     created,
			RemindersSent: map[int]bool{},
		}
		for name, i := range col {
			m := reminderColRe.FindStringSubmatch(name)
			if m == nil || i >= len(row) {
				continue
			}
			offset, _ := strconv.Atoi(m[1])
			if isYes(row[i]) {
				b.RemindersSent[offset] = true
			}
		}
		bookings = append(bookings, b)
	}
	return bookings, nil
}

func (s *CSVStore) writeBookings(bookings []Booking) error {
	offsets := s.reminderColumns(bookings)
	header := append(append([]string{}, bookingBaseHeader...), offsetHeaders(offsets)...)

	rows := make([][]string, 0, len(bookings))
	for _, b := range bookings {
		row := []string{
			b.ID, b.PatientID, b.PatientName, b.Doctor,
			b.Date.Format(DateLayout), b.TimeSlot,
			strings.Join(b.SlotIDs, ";"), b.Email, b.Phone,
			string(b.Status), b.CreatedAt.UTC().Format(time.RFC3339),
		}
		for _, offset := range offsets {
			if b.RemindersSent[offset] {
				row = append(row, "yes")
			} else {
				row = append(row, "")
			}
		}
		rows = append(rows, row)
	}
	if err := s.writeRows(bookingsFile, header, rows); err != nil {
		return fmt.Errorf("store: write bookings: %w", err)
	}
	return nil
}

// reminderColumns is the union of configured offsets and offsets already
// recorded on any booking, largest first. Editing the offset config never
// drops a flag that was already written.
func (s *CSVStore) reminderColumns(bookings []Booking) []int {
	seen := map[int]bool{}
	for _, o := range s.offsets {
		seen[o] = true
	}
	for _, b := range bookings {
		for o := range b.RemindersSent {
			seen[o] = true
		}
	}
	offsets := make([]int, 0, len(seen))
	for o := range seen {
		offsets = append(offsets, o)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(offsets)))
	return offsets
}

func offsetHeaders(offsets []int) []string {
	cols := make([]string, 0, len(offsets))
	for _, o := range offsets {
		cols = append(cols, fmt.Sprintf("reminder_%dd_sent", o))
	}
	return cols
}

func splitSlotIDs(cell string) []string {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return nil
	}
	parts := strings.Split(cell, ";")
	ids := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			ids = append(ids, p)
		}
	}
	return ids
}

func isYes(cell string) bool {
	switch strings.ToLower(strings.TrimSpace(cell)) {
	case "yes", "y", "true", "1":
		return true
	}
	return false
}

// --- file plumbing ---

// readRows returns data rows (header stripped). Missing files read as empty.
func (s *CSVStore) readRows(name string) ([][]string, error) {
	_, rows, err := s.readRowsWithHeader(name)
	return rows, err
}

func (s *CSVStore) readRowsWithHeader(name string) ([]string, [][]string, error) {
	f, err := os.Open(filepath.Join(s.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, nil
		}
		return nil, nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	all, err := r.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(all) == 0 {
		return nil, nil, nil
	}
	return all[0], all[1:], nil
}

// writeRows rewrites a dataset via temp file + rename so staff editing the
// CSVs never observe a half-written file.
func (s *CSVStore) writeRows(name string, header []string, rows [][]string) error {
	path := filepath.Join(s.dir, name)
	tmp, err := os.CreateTemp(s.dir, name+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(header); err != nil {
		tmp.Close()
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		tmp.Close()
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
