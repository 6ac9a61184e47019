// Package questions holds the fixed questionnaire presented in every session.
package questions

type Category string

const (
	PastRelationships Category = "gecmis_iliski"
	RecentActivities  Category = "son_aktiviteler"
	EmotionalReaction Category = "duygusal_tepkiler"
	OpenEnded         Category = "acik_uclu"
)

// Template is one question of the questionnaire
type Template struct {
	Number   int      `json:"number"`
	Text     string   `json:"text"`
	Category Category `json:"category"`
}

var templates = []Template{
	{1, "Son 1 haftada partnerinle en çok tartıştığın konu neydi?", EmotionalReaction},
	{2, "Bugün gün içinde neler yaptın? En baştan anlatır mısın?", RecentActivities},
	{3, "Eski ilişkilerinden birinde yaptığın en büyük hata sence neydi?", PastRelationships},
	{4, "Partnerin seni en son ne zaman hayal kırıklığına uğrattı?", EmotionalReaction},
	{5, "Bugün kimlerle konuştun veya mesajlaştın, hatırladığın kadarıyla anlatır mısın?", RecentActivities},
	{6, "İlişkide seni en çok ne kıskandırır?", EmotionalReaction},
	{7, "Eski partnerlerinle şu an herhangi bir iletişimin var mı?", PastRelationships},
	{8, "Bugün gün içinde kaç kez telefon ekranına baktığını tahmin edebilir misin?", RecentActivities},
	{9, "Partnerine en son ne zaman yalan söyledin? Ne hakkında olduğunu paylaşmak ister misin?", OpenEnded},
	{10, "İlişkinde en çok hangi durumda huzursuz hissediyorsun?", EmotionalReaction},
	{11, "Eski ilişkilerinden birinde sana yapılan, hâlâ aklına gelen bir davranış var mı?", PastRelationships},
	{12, "Bugün partnerin dışında en çok kiminle iletişim kurdun?", RecentActivities},
	{13, "Partnerinle geleceğe dair konuşurken en çok hangi konuda geriliyorsun?", EmotionalReaction},
	{14, "Sosyal medyada partnerinden gizlediğin bir hesap, kişi veya davranış var mı?", OpenEnded},
	{15, "Son 24 saatte seni en çok mutlu eden şey neydi?", OpenEnded},
	{16, "Eski partnerlerinden biri şu an seni arasaydı ne hissederdin?", PastRelationships},
	{17, "Bugün partnerini kaç kez düşündüğünü tahmin ediyorsun?", EmotionalReaction},
	{18, "Partnerinle yaşadığın ama çözülmemiş olduğunu düşündüğün bir konu var mı?", OpenEnded},
	{19, "Gün içinde partnerine söylemeyip sadece kendine sakladığın bir düşünce oldu mu?", OpenEnded},
	{20, "İlişkinle ilgili şu an en çok neyi merak ediyor veya sorguluyorsun?", OpenEnded},
}

// Templates returns a copy of the questionnaire in presentation order
func Templates() []Template {
	out := make([]Template, len(templates))
	copy(out, templates)
	return out
}

// Categories lists every category in first-appearance order
func Categories() []Category {
	return []Category{EmotionalReaction, RecentActivities, PastRelationships, OpenEnded}
}

// Lookup returns the template with the given number
func Lookup(number int) (Template, bool) {
	for _, t := range templates {
		if t.Number == number {
			return t, true
		}
	}
	return Template{}, false
}
