package sandbox

import (
	"time"

	"github.com/aanand-mishra/school-health/internal/types"
)

// Seed loads a small, realistic data set: three pending requests, one
// approved, one rejected, and a stocked cabinet.
func Seed(s *Store) {
	today := s.clock.Now().UTC()
	start := types.NewDate(today.Year(), today.Month(), today.Day())
	end := types.Date{Time: start.AddDate(0, 0, 14)}

	s.CreateItem(types.InventoryInput{MedicationName: "Paracetamol", Dosage: "500mg", Form: "tablet", Quantity: 40, ExpiryDate: types.Date{Time: start.AddDate(1, 0, 0)}})
	s.CreateItem(types.InventoryInput{MedicationName: "Salbutamol", Dosage: "100mcg", Form: "inhaler", Quantity: 3, ExpiryDate: types.Date{Time: start.AddDate(0, 8, 0)}})
	s.CreateItem(types.InventoryInput{MedicationName: "Cetirizine", Dosage: "10mg", Form: "tablet", Quantity: 12, ExpiryDate: types.Date{Time: start.AddDate(0, 6, 0)}})

	s.AddRequest(types.MedicationRequest{ID: "R1", StudentCode: "ST1001", StudentFullName: "Minh Anh Nguyen", MedicationName: "Paracetamol", Dosage: "500mg", Frequency: "after lunch", StartDate: start, EndDate: end, Status: types.StatusPending, RequestedByName: "Lan Nguyen"})
	s.AddRequest(types.MedicationRequest{ID: "R2", StudentCode: "ST1002", StudentFullName: "Bao Tran", MedicationName: "Salbutamol", Dosage: "2 puffs", Frequency: "before PE", StartDate: start, EndDate: end, Status: types.StatusPending, RequestedByName: "Hoa Tran"})
	s.AddRequest(types.MedicationRequest{ID: "R3", StudentCode: "ST1003", StudentFullName: "Khanh Le", MedicationName: "Amoxicillin", Dosage: "250mg", Frequency: "twice daily", StartDate: start, EndDate: end, Status: types.StatusPending, RequestedByName: "Tuan Le"})
	s.AddRequest(types.MedicationRequest{ID: "R4", StudentCode: "ST1004", StudentFullName: "Vy Pham", MedicationName: "Cetirizine", Dosage: "10mg", Frequency: "morning", StartDate: start, EndDate: end, Status: types.StatusApproved, RequestedByName: "Thu Pham",
		AdministrationRecords: []types.AdministrationRecord{{AdministrationTime: today.Add(-24 * time.Hour), AdministeredByNurseName: "Nurse Mai", Notes: "taken with water"}}})
	s.AddRequest(types.MedicationRequest{ID: "R5", StudentCode: "ST1005", StudentFullName: "Quang Do", MedicationName: "Ibuprofen", Dosage: "200mg", Frequency: "as needed", StartDate: start, EndDate: end, Status: types.StatusRejected, RequestedByName: "Linh Do", RejectionReason: "no doctor's note"})
}
