// internal/models/look.go
package models

// CinematicLook 电影质感滤镜
type CinematicLook struct {
	Category       string `json:"category"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	PromptFragment string `json:"prompt_fragment"`
}

// ActiveFilter 当前启用的滤镜及强度(0-100)
type ActiveFilter struct {
	Title     string `json:"title"`
	Intensity int    `json:"intensity"`
}

// 滤镜分类
const (
	LookCategoryGenre     = "장르 기반 시네마틱 룩 (Genre-Based)"
	LookCategoryEra       = "시대/역사 기반 시네마틱 룩 (Era/Historical-Based)"
	LookCategoryTechnique = "촬영 기술/매체 기반 시네마틱 룩 (Technique/Medium-Based)"
)

// CinematicLooks 内置滤镜目录，顺序即界面展示顺序
var CinematicLooks = []CinematicLook{
	{LookCategoryGenre, "필름 누아르", "극단적인 명암 대비, 깊은 그림자, 흑백 또는 매우 낮은 채도, 젖은 도로의 빛 반사 효과를 강조합니다.",
		"Film Noir style, extreme chiaroscuro lighting, deep shadows, black and white or heavily desaturated colors, dramatic low-key lighting, reflections on wet streets"},
	{LookCategoryGenre, "사이버펑크 네온", "어둡고 차가운 톤을 기반으로 네온(마젠타/시안) 색상을 극대화하고, 인공적인 조명, 안개, 렌즈 플레어 효과를 추가합니다.",
		"Cyberpunk neon aesthetic, dark and cool tones (blues/greens) with vibrant magenta and cyan neon lights, artificial lighting, foggy or smoggy atmosphere, lens flare"},
	{LookCategoryGenre, "감성 멜로", "부드러운 콘트라스트, 따뜻한 색감, 하이라이트의 빛 번짐(블룸) 효과로 몽환적인 느낌을 강조합니다.",
		"Romantic melodrama style, soft contrast, warm color palette, bloom effect on highlights, dreamy and ethereal atmosphere, flattering skin tones"},
	{LookCategoryGenre, "서부극", "세피아 톤에 가까운 색감, 바랜 듯한 채도, 강한 햇빛 아래의 높은 콘트라스트와 필름 그레인으로 거친 느낌을 살립니다.",
		"Classic Western film look, sepia-toned color palette, desaturated colors, high contrast under harsh sunlight, visible film grain, dusty atmosphere"},
	{LookCategoryGenre, "공포 스릴러", "의도적으로 손상된 필름 효과(스크래치, 먼지), 낮은 채도, 특정 색(주로 붉은색) 강조, 비네팅 효과를 줍니다.",
		"Grindhouse horror style, damaged film effect with scratches and dust, high contrast, desaturated colors with selective color pops (especially red), heavy vignetting, gritty texture"},
	{LookCategoryEra, "1920년대 무성영화", "완전 흑백, 높은 콘트라스트, 약간의 화면 깜빡임, 거친 필름 그레인으로 무성영화 시대를 재현합니다.",
		"1920s silent film aesthetic, high-contrast black and white, noticeable film grain, slight flicker effect, dramatic and expressive lighting"},
	{LookCategoryEra, "테크니컬러 영화", "1950년대 할리우드 영화처럼 매우 높은 채도, 특히 빨강, 파랑, 초록을 강렬하고 비현실적으로 표현합니다.",
		"Glorious Technicolor style of 1950s Hollywood, hyper-saturated colors, especially vibrant reds, blues, and greens, clean and sharp image"},
	{LookCategoryEra, "1980년대 VHS", "낮은 해상도, 색 번짐, 화면 노이즈 라인, 빛바랜 색감으로 80년대 VHS 테이프의 질감을 표현합니다.",
		"80s VHS aesthetic, low resolution, color bleeding, analog video noise and tracking lines, slightly faded colors, soft image quality"},
	{LookCategoryEra, "90년대 캠코더", "4:3 화면비, 약간의 디지털 노이즈, VHS보다 선명하지만 현대 영상보다는 부드러운 질감을 재현합니다.",
		"90s camcorder look, 4:3 aspect ratio, slight digital noise, softer than modern video but clearer than VHS, occasional date/time stamp overlay"},
	{LookCategoryTechnique, "아나모픽 렌즈", "가로로 긴 타원형의 보케와 수평으로 뻗는 렌즈 플레어로 영화적인 느낌을 강조합니다.",
		"Shot on an anamorphic lens, distinctive horizontal lens flare, oval-shaped bokeh, cinematic widescreen feel"},
	{LookCategoryTechnique, "슈퍼 8mm 필름", "매우 거칠고 큰 입자감, 따뜻한 색감, 비네팅, 약간의 화면 흔들림으로 인디 영화 스타일을 연출합니다.",
		"Super 8mm film aesthetic, heavy and coarse film grain, warm color cast, vignetting, slight frame jitter, nostalgic and raw feel"},
	{LookCategoryTechnique, "블리치 바이패스", "채도를 크게 낮추고 콘트라스트와 입자감을 높여 거칠고 차가우며 비정한 느낌을 줍니다.",
		"Bleach bypass film processing effect, reduced saturation, high contrast, increased grain, harsh and gritty look, retaining silver in the film stock"},
	{LookCategoryTechnique, "틸트-시프트", "렌즈를 기울여 초점면을 왜곡, 특정 영역만 선명하게 만들어 미니어처 장난감처럼 보이는 효과를 줍니다.",
		"Tilt-shift photography effect, selective focus creating a shallow depth of field, making the scene look like a miniature scale model"},
}

// FindLook 按标题查找滤镜
func FindLook(title string) (CinematicLook, bool) {
	for _, look := range CinematicLooks {
		if look.Title == title {
			return look, true
		}
	}
	return CinematicLook{}, false
}
