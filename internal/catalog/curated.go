package catalog

// curated lists the founder variants of the synthetic patient sequences
// produced from the BRCA1 (NM_007294.4) and BRCA2 (NM_000059) mRNA
// references.
var curated = []Entry{
	{
		Gene:          "BRCA1",
		Code:          "BRCA1_185delAG",
		ShortName:     "185delAG",
		Transcript:    "NM_007294.4",
		HGVSc:         "c.68_69delAG",
		HGVSp:         "p.Glu23Valfs*17",
		VariantType:   "frameshift_deletion",
		Pathogenicity: "Pathogenic",
		Conditions:    []string{"Hereditary breast cancer", "Hereditary ovarian cancer"},
		URL:           "https://www.ncbi.nlm.nih.gov/clinvar/RCV000019231/",
		Fingerprint:   Fingerprint{Length: 7086, Hash: "798d0464293e369cd14b7da34754efc9"},
	},
	{
		Gene:          "BRCA1",
		Code:          "BRCA1_5382insC",
		ShortName:     "5382insC",
		Transcript:    "NM_007294.4",
		HGVSc:         "c.5266dupC",
		HGVSp:         "p.Gln1756Profs*74",
		VariantType:   "frameshift_duplication",
		Pathogenicity: "Pathogenic",
		Conditions:    []string{"Hereditary breast cancer", "Hereditary ovarian cancer"},
		URL:           "https://www.ncbi.nlm.nih.gov/clinvar/RCV000031174/",
		Fingerprint:   Fingerprint{Length: 7089, Hash: "cd56a9f82e35e3a139a56d8432c67ed4"},
	},
	{
		Gene:          "BRCA2",
		Code:          "BRCA2_2808_2811delACAA",
		ShortName:     "2808_2811delACAA",
		Transcript:    "NM_000059.3",
		HGVSc:         "c.2808_2811delACAA",
		HGVSp:         "p.Ala938Profs*21",
		VariantType:   "frameshift_deletion",
		Pathogenicity: "Pathogenic",
		Conditions:    []string{"Hereditary breast cancer", "Hereditary ovarian cancer"},
		URL:           "https://www.ncbi.nlm.nih.gov/clinvar/RCV000044952/",
		Fingerprint:   Fingerprint{Length: 11950, Hash: "00a84de8f78dd7edfa1e187bcecbcf4e"},
	},
	{
		Gene:          "BRCA2",
		Code:          "BRCA2_6174delT",
		ShortName:     "6174delT",
		Transcript:    "NM_000059.4",
		HGVSc:         "c.5946delT",
		HGVSp:         "p.Ser1982Argfs*22",
		VariantType:   "frameshift_deletion",
		Pathogenicity: "Pathogenic",
		Conditions:    []string{"Hereditary breast cancer", "Hereditary ovarian cancer"},
		URL:           "https://www.ncbi.nlm.nih.gov/clinvar/RCV000045411/",
		Fingerprint:   Fingerprint{Length: 11953, Hash: "bb41f7c37bcff0f2a538006028b1787d"},
	},
}

// Default returns the built-in catalog of BRCA1/BRCA2 founder variants.
func Default() *Catalog {
	return New(curated)
}

