package models

// ResponseHeader is shared by the data.go.kr services
type ResponseHeader struct {
	ResultCode string `json:"resultCode"`
	ResultMsg  string `json:"resultMsg"`
}

// OK reports whether the service answered NORMAL_SERVICE
func (h ResponseHeader) OK() bool {
	return h.ResultCode == "00"
}

// KMAItem is one row of a village forecast service response. Observations carry
// obsrValue; forecasts carry fcstDate, fcstTime and fcstValue.
type KMAItem struct {
	BaseDate  string `json:"baseDate"`
	BaseTime  string `json:"baseTime"`
	Category  string `json:"category"`
	FcstDate  string `json:"fcstDate,omitempty"`
	FcstTime  string `json:"fcstTime,omitempty"`
	FcstValue string `json:"fcstValue,omitempty"`
	ObsrValue string `json:"obsrValue,omitempty"`
	Nx        int    `json:"nx"`
	Ny        int    `json:"ny"`
}

// KMAResponse is the envelope of getUltraSrtNcst, getUltraSrtFcst and getVilageFcst
type KMAResponse struct {
	Response struct {
		Header ResponseHeader `json:"header"`
		Body   struct {
			DataType string `json:"dataType"`
			Items    struct {
				Item []KMAItem `json:"item"`
			} `json:"items"`
			PageNo     int `json:"pageNo"`
			NumOfRows  int `json:"numOfRows"`
			TotalCount int `json:"totalCount"`
		} `json:"body"`
	} `json:"response"`
}

// AirKoreaItem is one station measurement. Values are null while a station is
// offline or under inspection.
type AirKoreaItem struct {
	StationName *string `json:"stationName"`
	DataTime    *string `json:"dataTime"`
	PM10Value   *string `json:"pm10Value"`
	PM10Grade   *string `json:"pm10Grade"`
	PM25Value   *string `json:"pm25Value"`
	PM25Grade   *string `json:"pm25Grade"`
	KhaiGrade   *string `json:"khaiGrade"`
}

// AirKoreaResponse is the envelope of getMsrstnAcctoRltmMesureDnsty
type AirKoreaResponse struct {
	Response struct {
		Header ResponseHeader `json:"header"`
		Body   struct {
			Items      []AirKoreaItem `json:"items"`
			PageNo     int            `json:"pageNo"`
			NumOfRows  int            `json:"numOfRows"`
			TotalCount int            `json:"totalCount"`
		} `json:"body"`
	} `json:"response"`
}
