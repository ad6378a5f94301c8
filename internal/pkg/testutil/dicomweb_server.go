package testutil

import (
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"
)

// FakeDicomwebServer serves QIDO-RS and WADO-RS requests for a fixed set of
// fixture instances, grouping them into studies and series the way a real
// archive would. Series can be deleted, mirroring the dcm4chee extension.
type FakeDicomwebServer struct {
	Server *httptest.Server

	mu            sync.Mutex
	instances     []FixtureInstance
	files         map[string][]byte
	retrieveDelay time.Duration
	studyQueries  int
	seriesQueries int
}

// StartFakeDicomwebServer encodes the fixtures and serves them until the test
// ends.
func StartFakeDicomwebServer(t *testing.T, instances ...FixtureInstance) *FakeDicomwebServer {
	t.Helper()

	f := &FakeDicomwebServer{
		instances: instances,
		files:     map[string][]byte{},
	}
	for _, inst := range instances {
		data, err := EncodeDicom(inst)
		if err != nil {
			t.Fatalf("failed to encode fixture %s: %v", inst.SOPInstanceUID, err)
		}
		f.files[inst.SOPInstanceUID] = data
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /studies", f.listStudies)
	mux.HandleFunc("GET /studies/{study}/series", f.listSeries)
	mux.HandleFunc("GET /studies/{study}/series/{series}/instances", f.listInstances)
	mux.HandleFunc("GET /studies/{study}/series/{series}/instances/{sop}", f.retrieveInstance)
	mux.HandleFunc("DELETE /studies/{study}/series/{series}", f.deleteSeries)

	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Server.Close)
	return f
}

// URL returns the server base URL.
func (f *FakeDicomwebServer) URL() string {
	return f.Server.URL
}

// StudyQueryCount reports how many study searches the server saw.
func (f *FakeDicomwebServer) StudyQueryCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.studyQueries
}

// SeriesQueryCount reports how many series searches the server saw.
func (f *FakeDicomwebServer) SeriesQueryCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.seriesQueries
}

// RemoveFile drops the stored file of one instance while keeping it listed,
// so WADO-RS retrievals of it fail the way an inconsistent archive would.
func (f *FakeDicomwebServer) RemoveFile(sopUID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.files, sopUID)
}

// SetRetrieveDelay makes every WADO-RS retrieval sleep before responding.
func (f *FakeDicomwebServer) SetRetrieveDelay(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.retrieveDelay = d
}

// HasSeries reports whether any instance of the series is still served.
func (f *FakeDicomwebServer) HasSeries(seriesUID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, inst := range f.instances {
		if inst.SeriesInstanceUID == seriesUID {
			return true
		}
	}
	return false
}

func (f *FakeDicomwebServer) listStudies(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.studyQueries++

	byStudy := map[string][]FixtureInstance{}
	for _, inst := range f.instances {
		byStudy[inst.StudyInstanceUID] = append(byStudy[inst.StudyInstanceUID], inst)
	}
	studyUIDs := make([]string, 0, len(byStudy))
	for uid := range byStudy {
		studyUIDs = append(studyUIDs, uid)
	}
	sort.Strings(studyUIDs)
	f.mu.Unlock()

	offset := intQuery(r, "offset")
	limit := intQuery(r, "limit")
	if offset >= len(studyUIDs) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	end := len(studyUIDs)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}

	var payload []map[string]interface{}
	for _, uid := range studyUIDs[offset:end] {
		group := byStudy[uid]
		modalities := map[string]bool{}
		for _, inst := range group {
			if inst.Modality != "" {
				modalities[inst.Modality] = true
			}
		}
		modalityList := make([]string, 0, len(modalities))
		for m := range modalities {
			modalityList = append(modalityList, m)
		}
		sort.Strings(modalityList)

		first := group[0]
		payload = append(payload, map[string]interface{}{
			"0020000D": textAttr("UI", uid),
			"00100010": personAttr(first.PatientName),
			"00100020": textAttr("LO", first.PatientID),
			"00080061": textAttr("CS", modalityList...),
			"00080020": textAttr("DA", first.StudyDate),
			"00081030": textAttr("LO", first.StudyDescription),
		})
	}
	writeDicomJSON(w, payload)
}

func (f *FakeDicomwebServer) listSeries(w http.ResponseWriter, r *http.Request) {
	studyUID := r.PathValue("study")

	f.mu.Lock()
	f.seriesQueries++

	bySeries := map[string][]FixtureInstance{}
	for _, inst := range f.instances {
		if inst.StudyInstanceUID == studyUID {
			bySeries[inst.SeriesInstanceUID] = append(bySeries[inst.SeriesInstanceUID], inst)
		}
	}
	seriesUIDs := make([]string, 0, len(bySeries))
	for uid := range bySeries {
		seriesUIDs = append(seriesUIDs, uid)
	}
	sort.Strings(seriesUIDs)
	f.mu.Unlock()

	if len(seriesUIDs) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	var payload []map[string]interface{}
	for _, uid := range seriesUIDs {
		group := bySeries[uid]
		first := group[0]
		seriesNumber := 0
		if first.SeriesNumber != "" {
			seriesNumber, _ = strconv.Atoi(first.SeriesNumber)
		}
		payload = append(payload, map[string]interface{}{
			"0020000E": textAttr("UI", uid),
			"00080060": textAttr("CS", first.Modality),
			"00200011": intAttr(seriesNumber),
			"0008103E": textAttr("LO", first.SeriesDescription),
			"00201209": intAttr(len(group)),
		})
	}
	writeDicomJSON(w, payload)
}

func (f *FakeDicomwebServer) listInstances(w http.ResponseWriter, r *http.Request) {
	seriesUID := r.PathValue("series")

	f.mu.Lock()
	group := make([]FixtureInstance, 0)
	for _, inst := range f.instances {
		if inst.SeriesInstanceUID == seriesUID {
			group = append(group, inst)
		}
	}
	f.mu.Unlock()

	if len(group) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	sort.Slice(group, func(i, j int) bool { return group[i].SOPInstanceUID < group[j].SOPInstanceUID })

	var payload []map[string]interface{}
	for _, inst := range group {
		payload = append(payload, map[string]interface{}{
			"00080018": textAttr("UI", inst.SOPInstanceUID),
		})
	}
	writeDicomJSON(w, payload)
}

func (f *FakeDicomwebServer) retrieveInstance(w http.ResponseWriter, r *http.Request) {
	sopUID := r.PathValue("sop")

	f.mu.Lock()
	data, ok := f.files[sopUID]
	delay := f.retrieveDelay
	f.mu.Unlock()
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if delay > 0 {
		time.Sleep(delay)
	}

	writer := multipart.NewWriter(w)
	w.Header().Set("Content-Type", `multipart/related; type="application/dicom"; boundary=`+writer.Boundary())
	part, err := writer.CreatePart(textproto.MIMEHeader{"Content-Type": {"application/dicom"}})
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if _, err := part.Write(data); err != nil {
		return
	}
	_ = writer.Close()
}

func (f *FakeDicomwebServer) deleteSeries(w http.ResponseWriter, r *http.Request) {
	seriesUID := r.PathValue("series")

	f.mu.Lock()
	kept := f.instances[:0]
	for _, inst := range f.instances {
		if inst.SeriesInstanceUID == seriesUID {
			delete(f.files, inst.SOPInstanceUID)
			continue
		}
		kept = append(kept, inst)
	}
	f.instances = kept
	f.mu.Unlock()

	w.WriteHeader(http.StatusNoContent)
}

func textAttr(vr string, values ...string) map[string]interface{} {
	present := make([]interface{}, 0, len(values))
	for _, v := range values {
		if v != "" {
			present = append(present, v)
		}
	}
	return map[string]interface{}{"vr": vr, "Value": present}
}

func intAttr(value int) map[string]interface{} {
	return map[string]interface{}{"vr": "IS", "Value": []interface{}{value}}
}

func personAttr(name string) map[string]interface{} {
	if name == "" {
		return map[string]interface{}{"vr": "PN", "Value": []interface{}{}}
	}
	return map[string]interface{}{
		"vr":    "PN",
		"Value": []interface{}{map[string]interface{}{"Alphabetic": name}},
	}
}

func writeDicomJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/dicom+json")
	_ = json.NewEncoder(w).Encode(payload)
}

func intQuery(r *http.Request, name string) int {
	value := r.URL.Query().Get(name)
	if value == "" {
		return 0
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return n
}
