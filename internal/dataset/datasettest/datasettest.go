// Package datasettest provides a small sales table with known aggregates
// for tests of packages built on top of dataset.
package datasettest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"carsales/internal/dataset"
)

// SampleCSV holds eleven source rows. Three are dropped by cleaning
// (missing condition, unparsable date, missing price), leaving eight:
//
//	make     rows  models
//	ford     3     f150 (2), fusion (1)
//	kia      2     sorento (2)
//	bmw      1     3 series
//	nissan   1     altima (year missing, state PR)
//	unknown  1     unknown (mmr missing)
//
// States: CA 3, TX 2, FL 1, PR 1, NJ 1. Mean price 16500.
const SampleCSV = `year,make,model,trim,body,transmission,vin,state,condition,odometer,color,interior,seller,mmr,sellingprice,saledate
2015,Kia,Sorento,LX,SUV,automatic,5xyktca69fg566472,ca,5,16639,white,black,kia motors america,20500,21500,Tue Dec 16 2014 12:30:00 GMT-0800 (PST)
2015,Kia,Sorento,LX,SUV,automatic,5xyktca69fg561319,ca,5,9393,white,beige,kia motors america,20800,21500,Tue Dec 16 2014 12:30:00 GMT-0800 (PST)
2014,BMW,3 Series,328i SULEV,Sedan,automatic,wba3c1c51ek116351,ca,45,1331,gray,black,financial services,31900,30000,Thu Jan 15 2015 04:30:00 GMT-0800 (PST)
2015, Ford ,F150,XLT,Pickup,automatic,1ftfw1ef5fk000001,tx,41,5554,red,gray,ford credit,18000,20000,Thu Jan 29 2015 04:30:00 GMT-0800 (PST)
2015,ford,f150,XLT,pickup,,1ftfw1ef5fk000002, TX ,30,14000,red,gray,ford credit,0,9000,Thu Jan 29 2015 04:30:00 GMT-0800 (PST)
2014,Ford,Fusion,SE,Sedan,automatic,3fa6p0h72er000003,fl,35,28000,blue,black,ford credit,12000,12500,2015-02-10 10:00:00
2013,Ford,Escape,SE,SUV,automatic,1fmcu0gx9duc00004,fl,,40000,black,black,ford credit,11000,10500,2015-02-11
,Nissan,Altima,2.5,Sedan,automatic,1n4al3ap0dc000005,pr,20,60000,silver,,nissan,8000,7500,2015-03-01
2012,Nissan,Altima,2.5 S,sedan,manual,1n4al2ap8cc000006,ca,25,70000,black,black,nissan,7000,6800,not a date
2016,Kia,Optima,LX,Sedan,automatic,5xxgm4a70gg000007,tx,48,100,black,black,kia,15000,,2015-06-01
2014,,,,,,1gnkvgkd0ej000008,nj,30,50000,,,dealer,,10000,2015-05-05T10:00:00Z
`

// WriteSampleCSV writes SampleCSV into a temporary directory and returns
// its path.
func WriteSampleCSV(t testing.TB) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "car_prices.csv")
	if err := os.WriteFile(path, []byte(SampleCSV), 0644); err != nil {
		t.Fatalf("write sample dataset: %v", err)
	}
	return path
}

// Table loads SampleCSV through dataset.Load.
func Table(t testing.TB) *dataset.Table {
	t.Helper()

	table, _, err := dataset.Load(context.Background(), WriteSampleCSV(t), dataset.Options{})
	if err != nil {
		t.Fatalf("load sample dataset: %v", err)
	}
	return table
}
