package ingest

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/wdm0006/parquetize/pkg/io/parquetio"
)

func TestSemicolonFileConversion(t *testing.T) {
	convey.Convey("Given an id;score file", t, func() {
		dir := t.TempDir()
		e, err := parquetio.SelectEngine(nil)
		convey.So(err, convey.ShouldBeNil)
		var out bytes.Buffer
		in := New(e)
		in.Out = &out
		in.OutputDir = filepath.Join(dir, "public", "parquet")

		convey.Convey("encoded as plain ASCII it is read by the first candidate", func() {
			p := filepath.Join(dir, "RESULTADOS_2024.csv")
			convey.So(os.WriteFile(p, []byte("id;score\n1;10\n2;20\n"), 0o644), convey.ShouldBeNil)

			res, err := in.Convert(p)
			convey.So(err, convey.ShouldBeNil)
			convey.So(string(res.Encoding), convey.ShouldEqual, "utf-8")
			convey.So(res.Delimiter, convey.ShouldEqual, ";")
			convey.So(res.Output, convey.ShouldEqual, filepath.Join(dir, "public", "parquet", "RESULTADOS_2024.parquet"))
			convey.So(out.String(), convey.ShouldContainSubstring, "[OK] "+p+" read (encoding=utf-8, sep=;)")
			convey.So(out.String(), convey.ShouldContainSubstring, "[OK] RESULTADOS_2024.parquet validated: 2 rows, 2 columns.")

			rep, err := VerifyColumnar(e, res.Output)
			convey.So(err, convey.ShouldBeNil)
			convey.So(rep.Rows, convey.ShouldEqual, 2)
			convey.So(rep.ColumnNames, convey.ShouldResemble, []string{"id", "score"})
		})

		convey.Convey("encoded as windows-1252 it falls through to cp1252", func() {
			p := filepath.Join(dir, "PARTICIPANTES_2024.csv")
			convey.So(os.WriteFile(p, []byte("id;score\n1;10\n2;20\n# gerado em s\xe3o paulo\n"), 0o644), convey.ShouldBeNil)

			res, err := in.Convert(p)
			convey.So(err, convey.ShouldBeNil)
			convey.So(string(res.Encoding), convey.ShouldEqual, "windows-1252")
			convey.So(res.Delimiter, convey.ShouldEqual, ";")
			convey.So(res.Fallback, convey.ShouldBeFalse)
			convey.So(res.Columns, convey.ShouldEqual, 2)

			f, err := parquetio.ReadFile(e, res.Output)
			convey.So(err, convey.ShouldBeNil)
			convey.So(f.Names(), convey.ShouldResemble, []string{"id", "score"})
			convey.So(f.Rows(), convey.ShouldEqual, 3)
			convey.So(f.Row(2)[0], convey.ShouldEqual, "# gerado em são paulo")
		})
	})
}

func TestInconsistentFileFallsBack(t *testing.T) {
	convey.Convey("Given a file whose rows disagree on column count", t, func() {
		dir := t.TempDir()
		p := filepath.Join(dir, "bad.csv")
		convey.So(os.WriteFile(p, []byte("a;b\n1;2;3\n4,5,6\n"), 0o644), convey.ShouldBeNil)
		e, err := parquetio.SelectEngine(nil)
		convey.So(err, convey.ShouldBeNil)
		var out bytes.Buffer
		in := New(e)
		in.Out = &out
		in.OutputDir = dir

		convey.Convey("Converting it uses the fallback and still produces a table", func() {
			res, err := in.Convert(p)
			convey.So(err, convey.ShouldBeNil)
			convey.So(res.Fallback, convey.ShouldBeTrue)
			convey.So(res.Rows, convey.ShouldEqual, 2)
			convey.So(res.Columns, convey.ShouldEqual, 2)
			convey.So(res.Repairs, convey.ShouldEqual, "short_records=1, long_records=1")

			lines := strings.Split(strings.TrimSpace(out.String()), "\n")
			convey.So(lines[0], convey.ShouldStartWith, "[WARN] "+p+": fallback")
			convey.So(lines[len(lines)-1], convey.ShouldEqual, "[OK] bad.parquet validated: 2 rows, 2 columns.")
		})
	})
}
