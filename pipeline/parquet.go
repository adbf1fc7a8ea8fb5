package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	parquetbuffer "github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"
)

// parquetWriter writes one SNAPPY-compressed <table>.parquet per table.
// Every column is OPTIONAL so missing cells stay null.
type parquetWriter struct{}

func (parquetWriter) Format() string { return FormatParquet }

func (parquetWriter) Write(dir string, rep *Report) ([]string, error) {
	var s staging
	for _, t := range rep.Tables {
		if err := checkTable(t); err != nil {
			s.abort()
			return nil, err
		}
		data, err := marshalTableParquet(t)
		if err != nil {
			s.abort()
			return nil, fmt.Errorf("table %s: %w", t.Name, err)
		}
		err = writeStaged(&s, filepath.Join(dir, t.Name+".parquet"), func(f *os.File) error {
			_, err := f.Write(data)
			return err
		})
		if err != nil {
			return nil, err
		}
	}
	return s.commit()
}

func parquetSchema(cols []Column) []string {
	md := make([]string, len(cols))
	for i, c := range cols {
		var typ string
		switch c.Kind {
		case KindFloat:
			typ = "type=DOUBLE"
		case KindInt:
			typ = "type=INT64"
		case KindDate:
			typ = "type=INT32, convertedtype=DATE"
		case KindTime:
			typ = "type=INT64, convertedtype=TIMESTAMP_MILLIS"
		default:
			typ = "type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"
		}
		md[i] = fmt.Sprintf("name=%s, %s, repetitiontype=OPTIONAL", c.Name, typ)
	}
	return md
}

func parquetValue(kind ColumnKind, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch kind {
	case KindFloat:
		switch x := v.(type) {
		case float64:
			return x, nil
		case int:
			return float64(x), nil
		}
	case KindInt:
		if x, ok := v.(int); ok {
			return int64(x), nil
		}
	case KindDate:
		if x, ok := v.(time.Time); ok {
			return int32(x.Unix() / 86400), nil
		}
	case KindTime:
		if x, ok := v.(time.Time); ok {
			return x.UnixMilli(), nil
		}
	default:
		return formatCell(v), nil
	}
	return nil, fmt.Errorf("cell %v (%T) does not fit column kind %d", v, v, kind)
}

func marshalTableParquet(t Table) ([]byte, error) {
	fw := parquetbuffer.NewBufferFile()
	pw, err := writer.NewCSVWriter(parquetSchema(t.Columns), fw, 4)
	if err != nil {
		return nil, err
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY
	for _, row := range t.Rows {
		rec := make([]interface{}, len(row))
		for i, v := range row {
			if rec[i], err = parquetValue(t.Columns[i].Kind, v); err != nil {
				_ = pw.WriteStop()
				return nil, err
			}
		}
		if err := pw.Write(rec); err != nil {
			_ = pw.WriteStop()
			return nil, err
		}
	}
	if err := pw.WriteStop(); err != nil {
		return nil, err
	}
	if err := fw.Close(); err != nil {
		return nil, err
	}
	return append([]byte(nil), fw.Bytes()...), nil
}
