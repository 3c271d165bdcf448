package api

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/hackgods/hospital-scheduling/internal/appointment"
)

func bookAppointmentHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BookRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		booking, err := req.toBooking()
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		appt, err := svc.Book(r.Context(), booking)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, appt)
	}
}

func updateStatusHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := uuidParam(w, r, "appointment_id")
		if !ok {
			return
		}
		var req UpdateStatusRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		appt, err := svc.UpdateStatus(r.Context(), id, appointment.Status(req.Status))
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, appt)
	}
}

func getAppointmentHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := uuidParam(w, r, "appointment_id")
		if !ok {
			return
		}
		detail, err := svc.Get(r.Context(), id)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, detail)
	}
}

// listFilterFromQuery reads status, priority, limit and offset.
func listFilterFromQuery(w http.ResponseWriter, r *http.Request) (appointment.ListFilter, bool) {
	q := r.URL.Query()
	var f appointment.ListFilter

	if v := q.Get("status"); v != "" {
		status, ok := appointment.ParseStatus(v)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_query", "status must be Scheduled, Completed or Cancelled")
			return f, false
		}
		f.Status = status
	}
	if v := q.Get("priority"); v != "" {
		priority, ok := appointment.ParsePriority(v)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_query", "priority must be Normal or Emergency")
			return f, false
		}
		f.Priority = priority
	}
	for name, dst := range map[string]*int{"limit": &f.Limit, "offset": &f.Offset} {
		v := q.Get(name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid_query", name+" must be a non-negative integer")
			return f, false
		}
		*dst = n
	}
	return f, true
}

func listAppointmentsHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, ok := listFilterFromQuery(w, r)
		if !ok {
			return
		}
		list, err := svc.List(r.Context(), f)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// listByOwnerHandler lists appointments of the clinician or patient named by
// the path parameter.
func listByOwnerHandler(svc *appointment.Service, param string, byPatient bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := uuidParam(w, r, param)
		if !ok {
			return
		}
		f, ok := listFilterFromQuery(w, r)
		if !ok {
			return
		}
		var list []appointment.Appointment
		var err error
		if byPatient {
			list, err = svc.ListByPatient(r.Context(), id, f)
		} else {
			list, err = svc.ListByClinician(r.Context(), id, f)
		}
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func recordsHandler(svc *appointment.Service, param string, byPatient bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := uuidParam(w, r, param)
		if !ok {
			return
		}
		var f appointment.ListFilter
		setOwner(&f, id, byPatient)

		records, err := svc.Records(r.Context(), f)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, records)
	}
}

func setOwner(f *appointment.ListFilter, id uuid.UUID, byPatient bool) {
	if byPatient {
		f.PatientID = &id
	} else {
		f.HcpID = &id
	}
}
