package model

import "sort"

// AdjacencyTable 州名から隣接する州名の集合へのマッピング（生成後は変更しない）
type AdjacencyTable struct {
	neighbors map[string]map[string]struct{}
}

// NewAdjacencyTable 隣接リストからAdjacencyTableを作成（重複は集合として1つにまとめる）
func NewAdjacencyTable(src map[string][]string) *AdjacencyTable {
	neighbors := make(map[string]map[string]struct{}, len(src))
	for state, list := range src {
		set := make(map[string]struct{}, len(list))
		for _, n := range list {
			set[n] = struct{}{}
		}
		neighbors[state] = set
	}
	return &AdjacencyTable{neighbors: neighbors}
}

// NeighborStates 直接隣接する州の一覧をソートして返す（未知・孤立した州は空）
func (t *AdjacencyTable) NeighborStates(state string) []string {
	set := t.neighbors[state]
	result := make([]string, 0, len(set))
	for n := range set {
		result = append(result, n)
	}
	sort.Strings(result)
	return result
}

// IsNeighbor otherがstateの直接の隣接州かチェック（非対称のまま判定する）
func (t *AdjacencyTable) IsNeighbor(state, other string) bool {
	_, ok := t.neighbors[state][other]
	return ok
}

// HasState stateがテーブルのキーとして登録されているかチェック
func (t *AdjacencyTable) HasState(state string) bool {
	_, ok := t.neighbors[state]
	return ok
}

// SearchStates 候補収集の対象となる州（自州＋隣接州）を返す
func (t *AdjacencyTable) SearchStates(state string) []string {
	return append([]string{state}, t.NeighborStates(state)...)
}

// DefaultAdjacencyTable インドの州・連邦直轄領の隣接テーブル
// 手作業で作成したデータのため対称ではない（例: Chandigarhはキーとして存在しない）
func DefaultAdjacencyTable() *AdjacencyTable {
	return NewAdjacencyTable(map[string][]string{
		"Andaman & Nicobar Islands": {},
		"Andhra Pradesh":            {"Telangana", "Tamil Nadu", "Karnataka", "Odisha", "Chhattisgarh"},
		"Arunachal Pradesh":         {"Assam", "Nagaland"},
		"Assam":                     {"Arunachal Pradesh", "Nagaland", "Manipur", "Mizoram", "West Bengal", "Meghalaya", "Tripura"},
		"Bihar":                     {"Uttar Pradesh", "Jharkhand", "West Bengal"},
		"Chhattisgarh":              {"Madhya Pradesh", "Odisha", "Jharkhand", "Telangana", "Maharashtra", "Andhra Pradesh", "Uttar Pradesh"},
		"Dadra & Nagar Haveli":      {"Gujarat", "Maharashtra"},
		"Daman & Diu":               {"Gujarat", "Maharashtra"},
		"Delhi":                     {"Haryana", "Uttar Pradesh"},
		"Goa":                       {"Maharashtra", "Karnataka"},
		"Gujarat":                   {"Maharashtra", "Rajasthan", "Dadra & Nagar Haveli", "Daman & Diu", "Madhya Pradesh"},
		"Haryana":                   {"Punjab", "Himachal Pradesh", "Delhi", "Uttar Pradesh", "Rajasthan", "Chandigarh", "Uttarakhand"},
		"Himachal Pradesh":          {"Jammu & Kashmir", "Punjab", "Uttarakhand", "Haryana", "Chandigarh", "Uttar Pradesh"},
		"Jammu & Kashmir":           {"Himachal Pradesh", "Punjab"},
		"Jharkhand":                 {"Bihar", "Uttar Pradesh", "Chhattisgarh", "West Bengal", "Odisha"},
		"Karnataka":                 {"Maharashtra", "Goa", "Andhra Pradesh", "Tamil Nadu", "Telangana", "Kerala"},
		"Kerala":                    {"Karnataka", "Tamil Nadu"},
		"Lakshadweep":               {},
		"Madhya Pradesh":            {"Rajasthan", "Uttar Pradesh", "Chhattisgarh", "Gujarat", "Maharashtra"},
		"Maharashtra":               {"Gujarat", "Madhya Pradesh", "Chhattisgarh", "Goa", "Karnataka", "Telangana", "Daman & Diu", "Dadra & Nagar Haveli"},
		"Manipur":                   {"Nagaland", "Mizoram", "Assam"},
		"Meghalaya":                 {"Assam"},
		"Mizoram":                   {"Assam", "Manipur", "Tripura"},
		"Nagaland":                  {"Arunachal Pradesh", "Manipur", "Assam"},
		"Odisha":                    {"West Bengal", "Jharkhand", "Chhattisgarh", "Andhra Pradesh"},
		"Puducherry":                {"Tamil Nadu"},
		"Punjab":                    {"Haryana", "Himachal Pradesh", "Jammu & Kashmir", "Chandigarh", "Rajasthan"},
		"Rajasthan":                 {"Punjab", "Haryana", "Uttar Pradesh", "Gujarat", "Madhya Pradesh", "Haryana"},
		"Sikkim":                    {"West Bengal"},
		"Tamil Nadu":                {"Kerala", "Karnataka", "Andhra Pradesh", "Puducherry"},
		"Telangana":                 {"Maharashtra", "Andhra Pradesh", "Karnataka", "Chhattisgarh"},
		"Tripura":                   {"Assam", "Mizoram"},
		"Uttar Pradesh":             {"Uttarakhand", "Himachal Pradesh", "Haryana", "Delhi", "Rajasthan", "Bihar", "Jharkhand", "Madhya Pradesh", "Chhattisgarh"},
		"Uttarakhand":               {"Himachal Pradesh", "Uttar Pradesh", "Haryana"},
		"West Bengal":               {"Sikkim", "Assam", "Jharkhand", "Odisha", "Bihar"},
	})
}
