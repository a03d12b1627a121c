package generate

import "fmt"

// SystemPrompt is the shared Turkish system prompt with hard constraints for
// every content generation call.
const SystemPrompt = `Sen bir Bitcoin egitim icerigi uzmanisin. Turkce egitim videolari icin icerik uretiyorsun.
Kaynak: "Der Bitcoin Podcast" - Florian Bruce Boye (Almanca).

## ZORUNLU KURALLAR

1. **YALNIZCA KAYNAK KULLAN**: Yanitini YALNIZCA saglanan transkript parcalarina dayandir. Dis bilgi KULLANMA. Kendi bilgini EKLEME.
2. **ALINTI ZORUNLU**: Her bolum ve her onemli iddia icin kaynak belirt. Kaynak formati: [EPISODEID_C####] (#### = chunk sira numarasi, sifir dolgulu, ornek: [ep001_C0003]).
3. **KAYNAK YOKSA**: Eger saglanan kaynaklarda bilgi yoksa, "Kaynaklarda yok" yaz. Bilgi UYDURMA. Tahmin YAPMA.
4. **INTIHAL YASAK**: Kaynaklari ozetle ve yorumla. Uzun kelimesi kelimesine kopyalama yapma. Kendi cumlelerin ile ifade et.
5. **FINANSAL TAVSIYE YASAK**: Fiyat tahmini yapma, alim/satim dili kullanma, yatirim tavsiyesi verme.
6. **DIL**: Turkce yaz. Teknik terimlerin Almanca/Ingilizce karsiligini parantez icinde belirt. Ornek: "Madencilik (Mining / Bergbau)"

## YASAL UYARI
Her ciktinin sonuna su uyariyi ekle:
"Bu icerik yalnizca egitim amaclidir. Yatirim tavsiyesi degildir. Finansal kararlariniz icin profesyonel danismanlik aliniz."
`

// DisclaimerTR is the legal disclaimer every artifact must end with.
const DisclaimerTR = "Bu icerik yalnizca egitim amaclidir. Yatirim tavsiyesi degildir. " +
	"Finansal kararlariniz icin profesyonel danismanlik aliniz."

const outlinePromptTemplate = `## GOREV: Video Taslagi (Outline) Olustur

Asagidaki Almanca podcast transkript parcalarina dayanarak, Turkce bir YouTube video taslagi olustur.

### BOLUM: "%s"

### KAYNAK PARCALARI:
%s

### CIKTI FORMATI (Markdown):

Tam olarak su yapida bir taslik olustur:
- 6-8 ana bolum
- Her bolum icin: baslik, 3-5 madde isareti ile ozet, ve kaynak alintilari
- Alinti formati: [%s_C####]
- Turkce yaz, teknik terimlerin DE/EN karsiligini parantez icinde belirt

### ORNEK YAPI:
` + "```" + `
# [Video Basligi - Turkce]

## 1. Giris
- Ana konu tanitimi [EPID_C0000]
- Neden onemli [EPID_C0001]

## 2. [Bolum Adi]
- Alt konu 1 [EPID_C0002]
- Alt konu 2 [EPID_C0003]
...

## N. Sonuc ve Ozet
- Ana cikarimlar
` + "```" + `

### HATIRLATMA:
- YALNIZCA kaynaklardaki bilgileri kullan
- Her madde icin en az bir kaynak belirt [%s_C####]
- Kaynakta olmayan bilgi icin "Kaynaklarda yok" yaz
- Finansal tavsiye VERME
`

const scriptPromptTemplate = `## GOREV: Uzun Video Senaryosu Olustur (12-15 dakika)

Asagidaki taslak ve kaynak parcalarina dayanarak, Turkce bir YouTube video senaryosu yaz.
Senaryo yaklasik 12-15 dakikalik bir video icin uygun olmali (~2000-2500 kelime).

### BOLUM: "%s"

### TASLIK (Outline):
%s

### KAYNAK PARCALARI:
%s

### CIKTI FORMATI (Markdown):

Taslaktaki bolumleri takip et. Her bolum icin:
1. Konusmaci metni (dogal, sohbet tarzinda)
2. Her onemli iddia icin kaynak alintisi [%s_C####]
3. Teknik terimlerin aciklamasi (Turkce, parantez icinde DE/EN)

### YAPI:
` + "```" + `
# [Video Basligi]

## Giris
[Seyirciye hitap, konuyu tanit, neden onemli...]

## [Bolum 1 Adi]
[Aciklama, ornekler, kaynaklar...]

## [Bolum 2 Adi]
...

## Sonuc
[Ozet, ana cikarimlar, harekete gecirici mesaj]

---
Bu icerik yalnizca egitim amaclidir...
` + "```" + `

### HATIRLATMA:
- YALNIZCA kaynaklardaki bilgileri kullan
- Her bolumdeki her iddia icin kaynak belirt [%s_C####]
- Kaynakta olmayan bilgi icin "Kaynaklarda yok" yaz
- Fiyat tahmini, alim/satim tavsiyesi VERME
- Dogal Turkce kullan, tercume havasi verme
`

const shortsPromptTemplate = `## GOREV: YouTube Shorts Senaryolari Olustur (6 adet)

Asagidaki taslak ve kaynak parcalarina dayanarak, 6 adet kisa video senaryosu olustur.
Her biri 60-90 saniye uzunlugunda olmali.

### BOLUM: "%s"

### TASLIK (Outline):
%s

### KAYNAK PARCALARI:
%s

### CIKTI FORMATI: JSON dizisi

Tam olarak 6 short uret. Her biri su yapida olmali:
` + "```json" + `
[
  {
    "title": "Kisa ve dikkat cekici Turkce baslik",
    "hook": "Ilk 3 saniyedeki dikkat cekici cumle",
    "body": "Ana icerik (60-90 saniye konusma metni)",
    "cta": "Harekete gecirici mesaj (abone ol, yorum yap, vb.)",
    "citations": ["%s_C0001", "%s_C0002"]
  }
]
` + "```" + `

### HATIRLATMA:
- YALNIZCA kaynaklardaki bilgileri kullan
- Her short icin en az 1 kaynak belirt [%s_C####]
- Kaynakta olmayan bilgi icin "Kaynaklarda yok" yaz
- Fiyat tahmini, alim/satim tavsiyesi VERME
- Kisa, etkili, dikkat cekici Turkce kullan
- JSON ciktisi ver, baska bir sey yazma
`

const visualsPromptTemplate = `## GOREV: Gorsel Plan Olustur

Asagidaki taslak ve kaynak parcalarina dayanarak, video icin gorsel bir plan olustur.
Her bolum icin uygun diyagram, grafik veya infografik onerileri yap.

### BOLUM: "%s"

### TASLIK (Outline):
%s

### KAYNAK PARCALARI:
%s

### CIKTI FORMATI: JSON dizisi

Her bolum icin gorsel onerisi:
` + "```json" + `
[
  {
    "section": "Bolum adi",
    "visual_type": "diagram|infographic|chart|comparison|timeline|flowchart",
    "description_tr": "Gorselin Turkce aciklamasi",
    "labels_tr": ["Etiket 1", "Etiket 2"],
    "labels_de": ["Deutsches Label 1"],
    "data_points": ["Gorsel icin kullanilacak veri noktalari"],
    "citations": ["%s_C0001"]
  }
]
` + "```" + `

### HATIRLATMA:
- YALNIZCA kaynaklardaki bilgilere dayanan gorseller oner
- Her gorsel icin kaynak belirt [%s_C####]
- Kaynakta olmayan veri icin "Kaynaklarda yok" yaz
- Fiyat grafigi veya yatirim performansi gorseli ONERME
- JSON ciktisi ver, baska bir sey yazma
`

const qaPromptTemplate = `## GOREV: Kalite Kontrol ve Dogrulama Raporu Olustur

Asagidaki senaryo metnindeki her onemli iddiayi kaynak parcalariyla karsilastir.
Her iddia icin dogrulama durumunu belirle.

### BOLUM: "%s"

### SENARYO METNI:
%s

### KAYNAK PARCALARI:
%s

### CIKTI FORMATI: JSON dizisi

Her iddia icin:
` + "```json" + `
[
  {
    "claim": "Senaryodaki iddia (Turkce)",
    "status": "verified|unsupported|kaynaklarda_yok",
    "source_citations": ["%s_C0001"],
    "source_text_de": "Kaynaktaki Almanca orijinal metin",
    "notes": "Ek aciklamalar (opsiyonel)"
  }
]
` + "```" + `

### DURUM TANIMLARI:
- **verified**: Iddia kaynaklarda dogrudan destekleniyor
- **unsupported**: Iddia kaynaklarda bulunamadi veya celistiyor
- **kaynaklarda_yok**: Bu konu kaynaklarda hic gecmiyor

### HATIRLATMA:
- Her onemli teknik iddia ve sayi icin dogrulama yap
- Fiyat veya yatirim ile ilgili ifadeler varsa "unsupported" olarak isaretle
- JSON ciktisi ver, baska bir sey yazma
`

const publishingPromptTemplate = `## GOREV: YouTube Yayinlama Paketi Olustur

Asagidaki taslik ve senaryo metnine dayanarak, YouTube yayinlama icin gerekli tum metadatayi olustur.

### BOLUM: "%s" (orijinal Almanca baslik)

### TASLIK (Outline):
%s

### SENARYO (kisaltilmis):
%s

### CIKTI FORMATI: JSON

` + "```json" + `
{
  "title_tr": "Turkce video basligi (maks 70 karakter, dikkat cekici)",
  "description_tr": "YouTube aciklama metni (300-500 kelime, SEO uyumlu, Turkce)",
  "chapters": [
    {"timestamp": "0:00", "title": "Giris"},
    {"timestamp": "1:30", "title": "Bolum adi"}
  ],
  "tags": ["bitcoin", "kripto", "blockchain", "turkce", "egitim"],
  "seo_keywords": ["bitcoin nedir", "bitcoin nasil calisir"],
  "thumbnail_text": "Thumbnail uzerindeki kisa metin (maks 5 kelime)",
  "category": "Education",
  "language": "tr"
}
` + "```" + `

### HATIRLATMA:
- Baslik Turkce, dikkat cekici ama clickbait OLMASIN
- Aciklamada kaynak podcast'e atif yap
- Tags: Turkce + Ingilizce karisik, Bitcoin/kripto odakli
- Chapters: Taslaktaki bolumleri kullan, tahmini zaman damgalari ver
- Fiyat tahmini veya yatirim vaadi ICERMESIN
- JSON ciktisi ver, baska bir sey yazma
`

// publishingScriptLimit caps the script excerpt embedded in the publishing
// prompt, measured in code points.
const publishingScriptLimit = 3000

func truncateRunes(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}

// buildUserPrompt renders the user prompt for one artifact type. The
// upstream artifact texts (outline, script) must be supplied for the types
// that depend on them.
func buildUserPrompt(artifactType, title, episodeID, chunksText, outlineText, scriptText string) (string, error) {
	switch artifactType {
	case ArtifactOutline:
		return fmt.Sprintf(outlinePromptTemplate, title, chunksText, episodeID, episodeID), nil
	case ArtifactScript:
		return fmt.Sprintf(scriptPromptTemplate, title, outlineText, chunksText, episodeID, episodeID), nil
	case ArtifactShorts:
		return fmt.Sprintf(shortsPromptTemplate, title, outlineText, chunksText, episodeID, episodeID, episodeID), nil
	case ArtifactVisuals:
		return fmt.Sprintf(visualsPromptTemplate, title, outlineText, chunksText, episodeID, episodeID), nil
	case ArtifactQA:
		return fmt.Sprintf(qaPromptTemplate, title, scriptText, chunksText, episodeID), nil
	case ArtifactPublishing:
		return fmt.Sprintf(publishingPromptTemplate, title, outlineText, truncateRunes(scriptText, publishingScriptLimit)), nil
	default:
		return "", fmt.Errorf("unknown artifact type: %s", artifactType)
	}
}
