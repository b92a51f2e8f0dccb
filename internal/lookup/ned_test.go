package lookup

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/agbru/nedmatch/internal/catalog"
	apperrors "github.com/agbru/nedmatch/internal/errors"
)

const matchVOTable = `<?xml version="1.0" encoding="UTF-8"?>
<VOTABLE version="1.1" xmlns="http://www.ivoa.net/xml/VOTable/v1.1">
  <RESOURCE type="results">
    <INFO name="QUERY_STATUS" value="OK"/>
    <TABLE>
      <FIELD name="No." datatype="int"/>
      <FIELD name="Object Name" datatype="char" arraysize="*"/>
      <FIELD name="RA(deg)" datatype="double"/>
      <FIELD name="DEC(deg)" datatype="double"/>
      <FIELD name="Type" datatype="char" arraysize="*"/>
      <FIELD name="Velocity" datatype="double"/>
      <FIELD name="Redshift" datatype="double"/>
      <FIELD name="Distance (arcmin)" datatype="double"/>
      <DATA><TABLEDATA>
        <TR><TD>1</TD><TD>MESSIER 031</TD><TD>10.68479</TD><TD>41.26906</TD><TD>G</TD><TD>-300</TD><TD>-0.001</TD><TD>0.5</TD></TR>
        <TR><TD>2</TD><TD>WISEA J004244.42+411608.7</TD><TD>10.6851</TD><TD>41.2691</TD><TD>IrS</TD><TD></TD><TD></TD><TD>0.12</TD></TR>
      </TABLEDATA></DATA>
    </TABLE>
  </RESOURCE>
</VOTABLE>`

const noMatchVOTable = `<?xml version="1.0" encoding="UTF-8"?>
<VOTABLE version="1.1">
  <INFO name="QUERY_STATUS" value="ERROR">No object found.</INFO>
</VOTABLE>`

const errorVOTable = `<?xml version="1.0" encoding="UTF-8"?>
<VOTABLE version="1.1">
  <RESOURCE><INFO name="QUERY_STATUS" value="ERROR">Invalid parameter: radius</INFO></RESOURCE>
</VOTABLE>`

func testQuery(t *testing.T) Query {
	t.Helper()
	pos, err := catalog.NewSkyPosition(10.684708, 41.26875)
	if err != nil {
		t.Fatal(err)
	}
	return Query{Position: pos, Radius: 10}
}

func TestNEDClientQuery(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name        string
		status      int
		body        string
		wantCount   int
		wantErr     bool
		checkErr    func(t *testing.T, err error)
		checkResult func(t *testing.T, cs []Candidate)
	}{
		{
			name:      "matches decoded",
			status:    http.StatusOK,
			body:      matchVOTable,
			wantCount: 2,
			checkResult: func(t *testing.T, cs []Candidate) {
				if cs[0].Name != "MESSIER 031" || cs[0].Type != "G" {
					t.Errorf("candidate 0 = %+v", cs[0])
				}
				if cs[0].Redshift == nil || *cs[0].Redshift != -0.001 {
					t.Errorf("candidate 0 redshift = %v", cs[0].Redshift)
				}
				if cs[0].Separation != 30 {
					t.Errorf("candidate 0 separation = %v, want 30 arcsec", cs[0].Separation)
				}
				if cs[1].HasRedshift() {
					t.Errorf("empty redshift cell should be absent, got %v", *cs[1].Redshift)
				}
			},
		},
		{
			name:      "no object found is an empty result",
			status:    http.StatusOK,
			body:      noMatchVOTable,
			wantCount: 0,
		},
		{
			name:    "query status error",
			status:  http.StatusOK,
			body:    errorVOTable,
			wantErr: true,
			checkErr: func(t *testing.T, err error) {
				var se *ServiceError
				if !errors.As(err, &se) || !strings.Contains(se.Message, "Invalid parameter") {
					t.Errorf("expected ServiceError, got %v", err)
				}
			},
		},
		{
			name:    "http failure",
			status:  http.StatusBadGateway,
			body:    "upstream down",
			wantErr: true,
			checkErr: func(t *testing.T, err error) {
				var se *ServiceError
				if !errors.As(err, &se) || se.StatusCode != http.StatusBadGateway || se.RateLimited() {
					t.Errorf("expected 502 ServiceError, got %v", err)
				}
			},
		},
		{
			name:    "rate limited",
			status:  http.StatusTooManyRequests,
			wantErr: true,
			checkErr: func(t *testing.T, err error) {
				var se *ServiceError
				if !errors.As(err, &se) || !se.RateLimited() || !strings.Contains(err.Error(), "rate limited") {
					t.Errorf("expected rate limit error, got %v", err)
				}
			},
		},
		{
			name:    "malformed body",
			status:  http.StatusOK,
			body:    "<html><body>maintenance</body>",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := NewNEDClient(WithEndpoint(srv.URL), WithHTTPClient(srv.Client()))
			cs, err := client.Query(context.Background(), testQuery(t))
			if (err != nil) != tt.wantErr {
				t.Fatalf("Query error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.checkErr != nil {
				tt.checkErr(t, err)
			}
			if err != nil {
				return
			}
			if len(cs) != tt.wantCount {
				t.Fatalf("got %d candidates, want %d", len(cs), tt.wantCount)
			}
			if tt.checkResult != nil {
				tt.checkResult(t, cs)
			}
		})
	}
}

func TestNEDClientRequestParameters(t *testing.T) {
	t.Parallel()
	params := make(chan map[string]string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen := map[string]string{"ua": r.UserAgent()}
		for k := range r.URL.Query() {
			seen[k] = r.URL.Query().Get(k)
		}
		params <- seen
		_, _ = w.Write([]byte(noMatchVOTable))
	}))
	defer srv.Close()

	client := NewNEDClient(WithEndpoint(srv.URL+"/cgi-bin/objsearch"), WithHTTPClient(srv.Client()), WithUserAgent("nedmatch-test"))
	if _, err := client.Query(context.Background(), testQuery(t)); err != nil {
		t.Fatal(err)
	}
	got := <-params

	want := map[string]string{
		"search_type": "Near Position Search",
		"in_csys":     "Equatorial",
		"in_equinox":  "J2000.0",
		"lon":         "10.684708d",
		"lat":         "41.268750d",
		"of":          "xml_main",
		"ua":          "nedmatch-test",
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("param %s = %q, want %q", k, got[k], v)
		}
	}
	if !strings.HasPrefix(got["radius"], "0.1666") {
		t.Errorf("radius should be 10 arcsec in arcmin, got %q", got["radius"])
	}
}

func TestNEDClientTimeout(t *testing.T) {
	t.Parallel()
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	client := NewNEDClient(WithEndpoint(srv.URL), WithHTTPClient(srv.Client()), WithTimeout(20*time.Millisecond))
	start := time.Now()
	_, err := client.Query(context.Background(), testQuery(t))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Error("timeout was not enforced promptly")
	}
}

func TestDecodeVOTableSchema(t *testing.T) {
	t.Parallel()
	body := `<VOTABLE><RESOURCE><RESOURCE><TABLE>
<FIELD name="Object Name"/><FIELD name="Distance (arcmin)"/>
<DATA><TABLEDATA><TR><TD>X</TD><TD>0.1</TD></TR></TABLEDATA></DATA>
</TABLE></RESOURCE></RESOURCE></VOTABLE>`
	_, err := decodeVOTable(strings.NewReader(body))
	if !errors.Is(err, ErrUnexpectedSchema) {
		t.Fatalf("expected ErrUnexpectedSchema, got %v", err)
	}
}

func TestDecodeVOTableNonNumericRedshift(t *testing.T) {
	t.Parallel()
	body := `<VOTABLE><RESOURCE><TABLE>
<FIELD ID="z"/>
<DATA><TABLEDATA><TR><TD>n/a</TD></TR><TR><TD>0.02</TD></TR></TABLEDATA></DATA>
</TABLE></RESOURCE></VOTABLE>`
	cs, err := decodeVOTable(strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	if len(cs) != 2 || cs[0].HasRedshift() || !cs[1].HasRedshift() {
		t.Errorf("unexpected candidates %+v", cs)
	}
}

func TestResolve(t *testing.T) {
	t.Parallel()
	z := 0.01
	tests := []struct {
		name        string
		client      Client
		wantSuccess bool
		wantCount   int
	}{
		{
			name: "success",
			client: ClientFunc(func(context.Context, Query) ([]Candidate, error) {
				return []Candidate{{Name: "A", Redshift: &z}}, nil
			}),
			wantSuccess: true,
			wantCount:   1,
		},
		{
			name: "error",
			client: ClientFunc(func(context.Context, Query) ([]Candidate, error) {
				return nil, errors.New("connection refused")
			}),
		},
		{
			name: "panic",
			client: ClientFunc(func(context.Context, Query) ([]Candidate, error) {
				panic("decoder bug")
			}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			o := Resolve(context.Background(), tt.client, 9, Query{})
			if o.IsSuccess() != tt.wantSuccess {
				t.Fatalf("IsSuccess() = %v, want %v (err %v)", o.IsSuccess(), tt.wantSuccess, o.Err())
			}
			if tt.wantSuccess {
				if len(o.Candidates()) != tt.wantCount || o.Err() != nil {
					t.Errorf("unexpected outcome %+v", o)
				}
				return
			}
			var le apperrors.LookupError
			if !errors.As(o.Err(), &le) || le.Index != 9 {
				t.Errorf("expected LookupError for row 9, got %v", o.Err())
			}
			if o.Candidates() != nil {
				t.Error("failed outcome must not carry candidates")
			}
		})
	}
}

func TestFailedWithoutCause(t *testing.T) {
	t.Parallel()
	if Failed(nil).IsSuccess() {
		t.Error("Failed(nil) must still be a failure")
	}
}

func TestAngle(t *testing.T) {
	t.Parallel()
	a := Angle(36)
	if a.Arcmin() != 0.6 || a.Degrees() != 0.01 {
		t.Errorf("conversions wrong: %v arcmin, %v deg", a.Arcmin(), a.Degrees())
	}
	if a.String() != `36"` {
		t.Errorf("String() = %q", a.String())
	}
}
